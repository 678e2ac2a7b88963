package assets

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
)

// Font selects one of the embedded typefaces.
type Font uint8

// Embedded fonts. The zero value is the default.
const (
	FontRegular Font = iota
	FontMedium
	FontBold
	FontItalic
	FontMono
	FontSmallCaps

	fontCount
)

// DefaultFont is used when no customization is stored.
const DefaultFont = FontRegular

type fontInfo struct {
	name   string
	family string
	data   []byte
}

var fontTable = [fontCount]fontInfo{
	FontRegular:   {name: "regular", family: "Go", data: goregular.TTF},
	FontMedium:    {name: "medium", family: "Go Medium", data: gomedium.TTF},
	FontBold:      {name: "bold", family: "Go Bold", data: gobold.TTF},
	FontItalic:    {name: "italic", family: "Go Italic", data: goitalic.TTF},
	FontMono:      {name: "mono", family: "Go Mono", data: gomono.TTF},
	FontSmallCaps: {name: "smallcaps", family: "Go Smallcaps", data: gosmallcaps.TTF},
}

// AllFonts lists every embedded font in declaration order.
func AllFonts() []Font {
	out := make([]Font, 0, fontCount)
	for f := Font(0); f < fontCount; f++ {
		out = append(out, f)
	}
	return out
}

// Valid reports whether f names an embedded font.
func (f Font) Valid() bool { return f < fontCount }

// String returns the short config name, e.g. "mono".
func (f Font) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Font(%d)", uint8(f))
	}
	return fontTable[f].name
}

// Family returns the family name written into the card document.
func (f Font) Family() string {
	if !f.Valid() {
		return fontTable[DefaultFont].family
	}
	return fontTable[f].family
}

// ParseFont resolves a short name or a family name, case-insensitively.
func ParseFont(name string) (Font, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for f := Font(0); f < fontCount; f++ {
		if n == fontTable[f].name || n == strings.ToLower(fontTable[f].family) {
			return f, nil
		}
	}
	return DefaultFont, fmt.Errorf("%w: %q", ErrUnknownFont, name)
}
