package card

import (
	"fmt"
	"strings"
)

// Color is a six digit lowercase hex RGB value without the leading '#'.
type Color string

// ParseColor accepts "rrggbb" or "#rrggbb" in any case.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidColorLength, s)
	}
	for _, r := range s {
		if !isHex(r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
	}
	return Color(strings.ToLower(s)), nil
}

// Validate reports whether c is well formed.
func (c Color) Validate() error {
	_, err := ParseColor(string(c))
	return err
}

func (c Color) String() string { return "#" + string(c) }

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// Colors is the card palette.
type Colors struct {
	Important          Color `json:"important"`
	Secondary          Color `json:"secondary"`
	Rank               Color `json:"rank"`
	Level              Color `json:"level"`
	Border             Color `json:"border"`
	Background         Color `json:"background"`
	ProgressForeground Color `json:"progress_foreground"`
	ProgressBackground Color `json:"progress_background"`
}

// DefaultColors is the palette used when nothing is customized.
func DefaultColors() Colors {
	return Colors{
		Important:          "ffffff",
		Secondary:          "b5bac1",
		Rank:               "ffffff",
		Level:              "8aa4ff",
		Border:             "1e1f22",
		Background:         "2b2d31",
		ProgressForeground: "5865f2",
		ProgressBackground: "4e5058",
	}
}

type namedColor struct {
	name  string
	value Color
	def   Color
}

func (c Colors) named() []namedColor {
	d := DefaultColors()
	return []namedColor{
		{"Important", c.Important, d.Important},
		{"Secondary", c.Secondary, d.Secondary},
		{"Rank", c.Rank, d.Rank},
		{"Level", c.Level, d.Level},
		{"Border", c.Border, d.Border},
		{"Background", c.Background, d.Background},
		{"Progress Foreground", c.ProgressForeground, d.ProgressForeground},
		{"Progress Background", c.ProgressBackground, d.ProgressBackground},
	}
}

// Validate checks every palette entry.
func (c Colors) Validate() error {
	for _, n := range c.named() {
		if err := n.value.Validate(); err != nil {
			return fmt.Errorf("%s: %w", strings.ToLower(n.name), err)
		}
	}
	return nil
}

// WithDefaults fills empty or malformed entries from the default palette.
func (c Colors) WithDefaults() Colors {
	d := DefaultColors()
	pick := func(v, def Color) Color {
		if parsed, err := ParseColor(string(v)); err == nil {
			return parsed
		}
		return def
	}
	return Colors{
		Important:          pick(c.Important, d.Important),
		Secondary:          pick(c.Secondary, d.Secondary),
		Rank:               pick(c.Rank, d.Rank),
		Level:              pick(c.Level, d.Level),
		Border:             pick(c.Border, d.Border),
		Background:         pick(c.Background, d.Background),
		ProgressForeground: pick(c.ProgressForeground, d.ProgressForeground),
		ProgressBackground: pick(c.ProgressBackground, d.ProgressBackground),
	}
}

// String lists the palette one entry per line, marking defaults.
func (c Colors) String() string {
	var b strings.Builder
	for _, n := range c.named() {
		fmt.Fprintf(&b, "%s: `%s`", n.name, n.value)
		if n.value == n.def {
			b.WriteString(" (default)")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
