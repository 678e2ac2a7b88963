package card

import (
	"fmt"

	"github.com/okian/levelcard/internal/domain/levels"
)

// Plain text responses for requests that do not get a card.
const (
	MessageBot          = "Bots aren't ranked, that would be silly!"
	MessageSelfUnranked = "You aren't ranked yet, because you haven't sent any messages!"
	MessageRenderFailed = "Something went wrong while drawing your card. Please try again later."
)

// DisplayName joins a name and discriminator the way cards show them.
// Accounts without a legacy discriminator ("" or "0") show the bare name.
func DisplayName(name, discriminator string) string {
	if discriminator == "" || discriminator == "0" {
		return name
	}
	return name + "#" + discriminator
}

// UnrankedMessage is shown when someone else has no xp yet.
func UnrankedMessage(name, discriminator string) string {
	return fmt.Sprintf("%s isn't ranked yet, because they haven't sent any messages!", DisplayName(name, discriminator))
}

// Summary is the text equivalent of a card, used as the image description
// and as the fallback when rendering fails.
func Summary(name, discriminator string, info levels.Info, rank int64) string {
	return fmt.Sprintf("%s is level %d (rank #%d), and is %d%% of the way to level %d.",
		DisplayName(name, discriminator), info.Level(), rank, info.Percent(), info.Level()+1)
}
