// Package repository reads member XP, ranks and card customizations.
package repository

import (
	"context"
	"path"
	"strings"

	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/card"
)

// Store provides read-only access to the leveling state.
type Store interface {
	// XP returns the member's XP in guild, or 0 when they have no row.
	XP(ctx context.Context, guild, user string) (uint64, error)

	// Rank returns 1 + the number of guild members with strictly more XP.
	Rank(ctx context.Context, guild string, xp uint64) (int64, error)

	// Customization returns the user's card look. Missing or malformed
	// settings fall back to the defaults entry by entry.
	Customization(ctx context.Context, user string) (card.Customization, error)
}

// CustomizationRecord is a stored card look as raw column values. Nil means
// the setting was never chosen.
type CustomizationRecord struct {
	Important          *string
	Secondary          *string
	Rank               *string
	Level              *string
	Border             *string
	Background         *string
	ProgressForeground *string
	ProgressBackground *string
	Font               *string
	Toy                *string
}

// Resolve turns a record into a usable customization.
func (r CustomizationRecord) Resolve() card.Customization {
	c := card.Customization{
		Colors: card.Colors{
			Important:          card.Color(deref(r.Important)),
			Secondary:          card.Color(deref(r.Secondary)),
			Rank:               card.Color(deref(r.Rank)),
			Level:              card.Color(deref(r.Level)),
			Border:             card.Color(deref(r.Border)),
			Background:         card.Color(deref(r.Background)),
			ProgressForeground: card.Color(deref(r.ProgressForeground)),
			ProgressBackground: card.Color(deref(r.ProgressBackground)),
		}.WithDefaults(),
		Font: assets.DefaultFont,
		Toy:  assets.ToyNone,
	}
	if f, err := assets.ParseFont(deref(r.Font)); err == nil {
		c.Font = f
	}
	c.Toy = parseToy(deref(r.Toy))
	return c
}

// parseToy accepts either a toy name or its sprite filename.
func parseToy(v string) assets.Toy {
	if t, ok := assets.ToyFromFilename(v); ok {
		return t
	}
	if t, err := assets.ParseToy(strings.TrimSuffix(path.Base(v), ".png")); err == nil {
		return t
	}
	return assets.ToyNone
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
