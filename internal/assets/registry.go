// Package assets holds the embedded fonts and toy sprites used by the card
// renderer.
//
// A Registry is built once at startup with Load and then shared read-only by
// every render. Lookups are keyed by the closed Font and Toy enums and never
// fail once the registry exists.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/gogpu/gg/text"
)

//go:embed toys/*.png
var toyFS embed.FS

// Registry is the immutable set of parsed fonts and decoded sprites.
type Registry struct {
	fonts   [fontCount]*text.FontSource
	sprites [toyCount]image.Image
}

// Load parses every embedded font and decodes every sprite.
func Load() (*Registry, error) {
	r := &Registry{}

	for f := Font(0); f < fontCount; f++ {
		src, err := text.NewFontSource(fontTable[f].data)
		if err != nil {
			return nil, fmt.Errorf("%w: font %s: %w", ErrLoad, f, err)
		}
		r.fonts[f] = src
	}

	for t := ToyNone + 1; t < toyCount; t++ {
		raw, err := toyFS.ReadFile("toys/" + t.Filename())
		if err != nil {
			return nil, fmt.Errorf("%w: toy %s: %w", ErrLoad, t, err)
		}
		img, err := png.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: toy %s: %w", ErrLoad, t, err)
		}
		r.sprites[t] = img
	}

	return r, nil
}

// MustLoad is Load for process bootstrap; it panics on a corrupt asset.
func MustLoad() *Registry {
	r, err := Load()
	if err != nil {
		panic(err)
	}
	return r
}

// Source returns the parsed font for f, falling back to the default font.
func (r *Registry) Source(f Font) *text.FontSource {
	if !f.Valid() {
		f = DefaultFont
	}
	return r.fonts[f]
}

// Face returns a face of the given pixel size.
func (r *Registry) Face(f Font, size float64) text.Face {
	return r.Source(f).Face(size)
}

// FontByFamily resolves a CSS-style font-family list to an embedded font.
// The first family that matches wins; no match yields the default font.
func (r *Registry) FontByFamily(families string) Font {
	for _, fam := range strings.Split(families, ",") {
		fam = strings.Trim(strings.TrimSpace(fam), `"'`)
		if f, err := ParseFont(fam); err == nil {
			return f
		}
	}
	return DefaultFont
}

// Sprite returns the decoded image for t. ToyNone has no sprite.
func (r *Registry) Sprite(t Toy) (image.Image, bool) {
	if t == ToyNone || !t.Valid() {
		return nil, false
	}
	return r.sprites[t], true
}

// SpriteByFilename resolves a sprite reference from the card document.
func (r *Registry) SpriteByFilename(href string) (image.Image, bool) {
	t, ok := ToyFromFilename(href)
	if !ok {
		return nil, false
	}
	return r.Sprite(t)
}

// FaceFor resolves a font-family list and size to a face.
func (r *Registry) FaceFor(families string, size float64) text.Face {
	return r.Face(r.FontByFamily(families), size)
}
