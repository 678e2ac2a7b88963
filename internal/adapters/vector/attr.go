package vector

import (
	"encoding/xml"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.NRGBA{
	"black":       {A: 0xff},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"red":         {R: 0xff, A: 0xff},
	"green":       {G: 0x80, A: 0xff},
	"blue":        {B: 0xff, A: 0xff},
	"gray":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"transparent": {},
}

// attrs indexes element attributes by local name.
type attrs map[string]string

func newAttrs(list []xml.Attr) attrs {
	a := make(attrs, len(list))
	for _, at := range list {
		a[at.Name.Local] = at.Value
	}
	// Inline style declarations override presentation attributes.
	if style, ok := a["style"]; ok {
		for _, decl := range strings.Split(style, ";") {
			k, v, found := strings.Cut(decl, ":")
			if !found {
				continue
			}
			a[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return a
}

// number parses an optional length; absent attributes yield def.
func (a attrs) number(name string, def float64) (float64, error) {
	raw, ok := a[name]
	if !ok {
		return def, nil
	}
	v, err := parseLength(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidAttribute, name, raw)
	}
	return v, nil
}

func parseLength(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	return strconv.ParseFloat(s, 64)
}

func parseViewBox(s string) (*ViewBox, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' || r == '\n' })
	if len(fields) != 4 {
		return nil, fmt.Errorf("%w: viewBox=%q", ErrInvalidAttribute, s)
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: viewBox=%q", ErrInvalidAttribute, s)
		}
		v[i] = n
	}
	return &ViewBox{MinX: v[0], MinY: v[1], Width: v[2], Height: v[3]}, nil
}

func parsePaint(s string) (*Paint, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "none":
		return &Paint{None: true}, nil
	case s == "currentcolor":
		return &Paint{Color: namedColors["black"]}, nil
	case strings.HasPrefix(s, "#"):
		c, err := parseHex(s[1:])
		if err != nil {
			return nil, err
		}
		return &Paint{Color: c}, nil
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[4:len(s)-1], ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: color %q", ErrInvalidAttribute, s)
		}
		var ch [3]uint8
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: color %q", ErrInvalidAttribute, s)
			}
			ch[i] = uint8(n)
		}
		return &Paint{Color: color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xff}}, nil
	}
	if c, ok := namedColors[s]; ok {
		return &Paint{Color: c}, nil
	}
	return nil, fmt.Errorf("%w: color %q", ErrInvalidAttribute, s)
}

func parseHex(h string) (color.NRGBA, error) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: color #%s", ErrInvalidAttribute, h)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color #%s", ErrInvalidAttribute, h)
	}
	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}

func parseAnchor(s string) (Anchor, error) {
	switch strings.TrimSpace(s) {
	case "start":
		return AnchorStart, nil
	case "middle":
		return AnchorMiddle, nil
	case "end":
		return AnchorEnd, nil
	default:
		return AnchorStart, fmt.Errorf("%w: text-anchor=%q", ErrInvalidAttribute, s)
	}
}

func parseAspect(s string) AspectRatio {
	f := strings.Fields(s)
	if len(f) == 0 {
		return AspectMeet
	}
	if f[0] == "none" {
		return AspectNone
	}
	if len(f) > 1 && f[1] == "slice" {
		return AspectSlice
	}
	return AspectMeet
}

// clipRef extracts the id from url(#id).
func clipRef(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "url(") || !strings.HasSuffix(s, ")") {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(s[4:len(s)-1]), "#")
}

// inherit resolves a and the parent style into the style of the element.
func (a attrs) inherit(parent Style) (Style, error) {
	s := parent
	if v, ok := a["fill"]; ok {
		p, err := parsePaint(v)
		if err != nil {
			return s, err
		}
		s.Fill = p
	}
	if v, ok := a["stroke"]; ok {
		p, err := parsePaint(v)
		if err != nil {
			return s, err
		}
		s.Stroke = p
	}
	var err error
	if s.StrokeWidth, err = a.number("stroke-width", parent.StrokeWidth); err != nil {
		return s, err
	}
	if s.FontSize, err = a.number("font-size", parent.FontSize); err != nil {
		return s, err
	}
	opacity, err := a.number("opacity", 1)
	if err != nil {
		return s, err
	}
	s.Opacity = parent.Opacity * clamp01(opacity)
	if v, ok := a["fill-opacity"]; ok && s.Fill != nil && !s.Fill.None {
		fo, err := parseLength(v)
		if err != nil {
			return s, fmt.Errorf("%w: fill-opacity=%q", ErrInvalidAttribute, v)
		}
		p := *s.Fill
		p.Color.A = uint8(float64(p.Color.A) * clamp01(fo))
		s.Fill = &p
	}
	if v, ok := a["font-family"]; ok {
		s.FontFamily = v
	}
	if v, ok := a["text-anchor"]; ok {
		if s.Anchor, err = parseAnchor(v); err != nil {
			return s, err
		}
	}
	return s, nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
