package card

import (
	"fmt"
	"strings"

	"github.com/okian/levelcard/internal/assets"
)

// Customization is a user's stored card look.
type Customization struct {
	Colors Colors
	Font   assets.Font
	Toy    assets.Toy
}

// DefaultCustomization is used for users without a stored record.
func DefaultCustomization() Customization {
	return Customization{
		Colors: DefaultColors(),
		Font:   assets.DefaultFont,
		Toy:    assets.ToyNone,
	}
}

// Validate checks the palette and that font and toy are embedded.
func (c Customization) Validate() error {
	if err := c.Colors.Validate(); err != nil {
		return err
	}
	if !c.Font.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidFont, c.Font)
	}
	if !c.Toy.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidToy, c.Toy)
	}
	return nil
}

// Describe renders the settings as shown by the card command.
func (c Customization) Describe() string {
	var b strings.Builder
	b.WriteString(c.Colors.String())
	fmt.Fprintf(&b, "Font: `%s`", c.Font.Family())
	if c.Font == assets.DefaultFont {
		b.WriteString(" (default)")
	}
	b.WriteByte('\n')
	if c.Toy == assets.ToyNone {
		b.WriteString("Toy: none (default)\n")
	} else {
		fmt.Fprintf(&b, "Toy: `%s`\n", c.Toy)
	}
	return b.String()
}
