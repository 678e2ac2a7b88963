package vector

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"
)

// Resolver turns an image href into pixels. Returning false leaves the
// image out of the scene; it is never an error.
type Resolver interface {
	Resolve(href string) (image.Image, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(href string) (image.Image, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(href string) (image.Image, bool) { return f(href) }

// Chain tries each resolver in order; the first hit wins.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(href string) (image.Image, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if img, ok := r.Resolve(href); ok {
			return img, true
		}
	}
	return nil, false
}

var rootStyle = Style{
	Fill:        &Paint{Color: namedColors["black"]},
	Stroke:      &Paint{None: true},
	StrokeWidth: 1,
	Opacity:     1,
	FontSize:    16,
	Anchor:      AnchorStart,
}

type parser struct {
	dec      *xml.Decoder
	resolver Resolver
	clips    map[string]*ClipPath
	pending  map[*Image]string
}

// Parse reads an SVG document into a scene. Image hrefs are resolved through
// r, which may be nil.
func Parse(doc []byte, r Resolver) (*Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Entity = xml.HTMLEntity
	p := &parser{
		dec:      dec,
		resolver: r,
		clips:    make(map[string]*ClipPath),
		pending:  make(map[*Image]string),
	}

	root, err := p.root()
	if err != nil {
		return nil, err
	}
	out, err := p.document(root)
	if err != nil {
		return nil, err
	}

	for img, id := range p.pending {
		img.Clip = p.clips[id]
	}
	return out, nil
}

func (p *parser) token() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unexpected end of document", ErrSyntax)
		}
		return nil, fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return tok, nil
}

func (p *parser) root() (xml.StartElement, error) {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, ErrNoRoot
		}
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("%w: %w", ErrSyntax, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != "svg" {
				return xml.StartElement{}, fmt.Errorf("%w: found <%s>", ErrNoRoot, se.Name.Local)
			}
			return se, nil
		}
	}
}

func (p *parser) document(se xml.StartElement) (*Document, error) {
	a := newAttrs(se.Attr)
	doc := &Document{}

	if v, ok := a["viewBox"]; ok {
		vb, err := parseViewBox(v)
		if err != nil {
			return nil, err
		}
		doc.ViewBox = vb
	}

	var err error
	if doc.Width, err = p.size(a, "width", doc.ViewBox); err != nil {
		return nil, err
	}
	if doc.Height, err = p.size(a, "height", doc.ViewBox); err != nil {
		return nil, err
	}

	style, err := a.inherit(rootStyle)
	if err != nil {
		return nil, err
	}
	if err := p.children(style, func(n Node) { doc.Nodes = append(doc.Nodes, n) }); err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *parser) size(a attrs, name string, vb *ViewBox) (float64, error) {
	if _, ok := a[name]; ok {
		return a.number(name, 0)
	}
	if vb == nil {
		return 0, fmt.Errorf("%w: missing %s and viewBox", ErrNoSize, name)
	}
	if name == "width" {
		return vb.Width, nil
	}
	return vb.Height, nil
}

// children consumes elements until the parent's end tag.
func (p *parser) children(parent Style, sink func(Node)) error {
	for {
		tok, err := p.token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := p.element(t, parent, sink); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func discard(Node) {}

func (p *parser) element(se xml.StartElement, parent Style, sink func(Node)) error {
	a := newAttrs(se.Attr)
	style, err := a.inherit(parent)
	if err != nil {
		return fmt.Errorf("<%s>: %w", se.Name.Local, err)
	}

	switch se.Name.Local {
	case "g":
		return p.children(style, sink)
	case "defs":
		return p.children(style, discard)
	case "clipPath":
		cp := &ClipPath{ID: a["id"]}
		if cp.ID != "" {
			p.clips[cp.ID] = cp
		}
		return p.children(style, func(n Node) { cp.Shapes = append(cp.Shapes, n) })
	case "rect":
		n, err := rectNode(a, style)
		if err != nil {
			return err
		}
		sink(n)
	case "circle":
		n, err := circleNode(a, style)
		if err != nil {
			return err
		}
		sink(n)
	case "text":
		n, err := textNode(a, style)
		if err != nil {
			return err
		}
		content, err := p.text()
		if err != nil {
			return err
		}
		n.Content = content
		sink(n)
		return nil
	case "image":
		n, err := p.imageNode(a, style)
		if err != nil {
			return err
		}
		if n != nil {
			sink(n)
		}
	}
	return p.skip()
}

func (p *parser) skip() error {
	if err := p.dec.Skip(); err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return nil
}

// text collects the character data of a text element, including nested
// spans, with whitespace collapsed.
func (p *parser) text() (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := p.token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return strings.Join(strings.Fields(b.String()), " "), nil
			}
			depth--
		}
	}
}

func rectNode(a attrs, s Style) (*Rect, error) {
	r := &Rect{Style: s}
	var err error
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"x", &r.X}, {"y", &r.Y}, {"width", &r.Width}, {"height", &r.Height},
		{"rx", &r.RX}, {"ry", &r.RY},
	} {
		if *f.dst, err = a.number(f.name, 0); err != nil {
			return nil, fmt.Errorf("<rect>: %w", err)
		}
	}
	// A single corner radius applies to both axes.
	if _, ok := a["ry"]; !ok {
		r.RY = r.RX
	}
	if _, ok := a["rx"]; !ok {
		r.RX = r.RY
	}
	return r, nil
}

func circleNode(a attrs, s Style) (*Circle, error) {
	c := &Circle{Style: s}
	var err error
	if c.CX, err = a.number("cx", 0); err != nil {
		return nil, fmt.Errorf("<circle>: %w", err)
	}
	if c.CY, err = a.number("cy", 0); err != nil {
		return nil, fmt.Errorf("<circle>: %w", err)
	}
	if c.R, err = a.number("r", 0); err != nil {
		return nil, fmt.Errorf("<circle>: %w", err)
	}
	return c, nil
}

func textNode(a attrs, s Style) (*Text, error) {
	t := &Text{Style: s}
	var err error
	if t.X, err = a.number("x", 0); err != nil {
		return nil, fmt.Errorf("<text>: %w", err)
	}
	if t.Y, err = a.number("y", 0); err != nil {
		return nil, fmt.Errorf("<text>: %w", err)
	}
	return t, nil
}

// imageNode returns nil when the image cannot be resolved or has no area.
func (p *parser) imageNode(a attrs, s Style) (*Image, error) {
	img := &Image{Style: s, Aspect: parseAspect(a["preserveAspectRatio"])}
	var err error
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"x", &img.X}, {"y", &img.Y}, {"width", &img.Width}, {"height", &img.Height},
	} {
		if *f.dst, err = a.number(f.name, 0); err != nil {
			return nil, fmt.Errorf("<image>: %w", err)
		}
	}

	href := strings.TrimSpace(a["href"])
	if href == "" || p.resolver == nil {
		return nil, nil
	}
	src, ok := p.resolver.Resolve(href)
	if !ok || src == nil {
		return nil, nil
	}
	img.Source = src

	// Width and height default to the raster's own size.
	if _, ok := a["width"]; !ok {
		img.Width = float64(src.Bounds().Dx())
	}
	if _, ok := a["height"]; !ok {
		img.Height = float64(src.Bounds().Dy())
	}
	if img.Width <= 0 || img.Height <= 0 {
		return nil, nil
	}

	if id := clipRef(a["clip-path"]); id != "" {
		p.pending[img] = id
	}
	return img, nil
}
