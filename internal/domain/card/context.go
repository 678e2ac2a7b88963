package card

import (
	"fmt"
	"strings"

	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/levels"
)

// Progress bar geometry in card pixels.
const (
	progressBarSpan = 700
	progressBarMin  = 40
)

const avatarPrefix = "data:image/"

// Context is everything needed to draw one card. It is built per request and
// consumed by a single render.
type Context struct {
	Level         uint64
	Rank          int64
	Name          string
	Discriminator string
	// Percentage is the filled bar width in pixels, see ProgressBarPixels.
	Percentage uint64
	Current    uint64
	Needed     uint64
	Font       assets.Font
	Colors     Colors
	Toy        assets.Toy
	// Avatar is a data:image/... URI, or empty for no avatar.
	Avatar string
}

// NewContext assembles a Context from a level summary and customization.
func NewContext(info levels.Info, rank int64, name, discriminator string, custom Customization, avatar string) Context {
	return Context{
		Level:         info.Level(),
		Rank:          rank,
		Name:          name,
		Discriminator: discriminator,
		Percentage:    ProgressBarPixels(info.Progress()),
		Current:       info.XP(),
		Needed:        info.Needed(),
		Font:          custom.Font,
		Colors:        custom.Colors,
		Toy:           custom.Toy,
		Avatar:        avatar,
	}
}

// ProgressBarPixels maps progress in [0,1) onto the bar width.
func ProgressBarPixels(progress float64) uint64 {
	if progress < 0 {
		progress = 0
	}
	return uint64(progress*progressBarSpan + progressBarMin)
}

// Validate checks the cosmetic fields against the embedded asset set.
func (c Context) Validate() error {
	if err := (Customization{Colors: c.Colors, Font: c.Font, Toy: c.Toy}).Validate(); err != nil {
		return err
	}
	if c.Avatar != "" && !strings.HasPrefix(c.Avatar, avatarPrefix) {
		return fmt.Errorf("%w: got %.16q", ErrInvalidAvatar, c.Avatar)
	}
	return nil
}
