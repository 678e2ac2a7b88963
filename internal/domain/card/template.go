// Package card builds rank card documents: the render context, the user's
// palette and the embedded SVG template that turns both into a document.
package card

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed card.svg
var cardSVG string

// Store holds the compiled card template. It is immutable and safe for
// concurrent use.
type Store struct {
	tmpl *template.Template
}

// templateData is the view the template is executed against.
type templateData struct {
	Context
	FontFamily string
	Avatar     template.URL
	ToyFile    template.URL
}

// NewStore compiles the embedded template.
func NewStore() (*Store, error) {
	tmpl, err := template.New("card.svg").
		Funcs(template.FuncMap{"integerhumanize": Humanize}).
		Parse(cardSVG)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateCompile, err)
	}
	return &Store{tmpl: tmpl}, nil
}

// MustStore is NewStore for process bootstrap.
func MustStore() *Store {
	s, err := NewStore()
	if err != nil {
		panic(err)
	}
	return s
}

// Fill validates ctx and executes the template, returning the SVG document.
func (s *Store) Fill(ctx Context) ([]byte, error) {
	if err := ctx.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateFill, err)
	}
	ctx.Name = xmlText(ctx.Name)
	ctx.Discriminator = xmlText(ctx.Discriminator)
	data := templateData{
		Context:    ctx,
		FontFamily: ctx.Font.Family(),
		// Validate only lets data:image/ URIs through.
		Avatar:  template.URL(ctx.Avatar), //nolint:gosec // checked by Validate
		ToyFile: template.URL(ctx.Toy.Filename()),
	}
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTemplateFill, err)
	}
	return buf.Bytes(), nil
}

// xmlText replaces runes XML 1.0 cannot carry, even escaped, with U+FFFD.
func xmlText(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t', r == '\n', r == '\r':
			return r
		case r >= 0x20 && r <= 0xD7FF,
			r >= 0xE000 && r <= 0xFFFD,
			r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return '\uFFFD'
	}, s)
}
