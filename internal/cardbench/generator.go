package cardbench

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/internal/domain/levels"
	"github.com/okian/levelcard/pkg/logger"
)

// Sample is a generated card request.
type Sample struct {
	ID   string
	Card card.Context
}

// randomInt returns a uniform value in [0, n).
func randomInt(n int64) int64 {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0
	}
	return v.Int64()
}

func getRandomFloat() float64 {
	return float64(randomInt(randomFloatDivisor)) / float64(randomFloatDivisor)
}

// generateSamples creates config.Cards cards spread over every font and toy.
func generateSamples(ctx context.Context, config *Config, stats *Stats) ([]Sample, error) {
	logger.Get().Info(ctx, "generating cards", logger.Int("cards", config.Cards))

	maxXP := config.MaxXP
	if maxXP == 0 {
		maxXP = defaultMaxXP
	}
	fonts, toys := assets.AllFonts(), assets.AllToys()

	samples := make([]Sample, config.Cards)
	for i := range samples {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during generation: %w", err)
		}
		id := uuid.New()
		custom := card.Customization{
			Colors: randomColors(),
			Font:   fonts[i%len(fonts)],
			Toy:    toys[(i/len(fonts))%len(toys)],
		}
		// Skew towards low xp like a real guild.
		xp := uint64(getRandomFloat() * getRandomFloat() * float64(maxXP))
		info := levels.NewInfo(xp)
		samples[i] = Sample{
			ID: id.String(),
			Card: card.NewContext(info, randomInt(int64(config.Cards))+1,
				id.String()[:nameLength], discriminator(), custom, ""),
		}
	}

	stats.CardsGenerated = len(samples)
	logger.Get().Info(ctx, "generated cards", logger.Int("count", len(samples)))
	return samples, nil
}

func randomColors() card.Colors {
	c := card.DefaultColors()
	c.Important = randomColor()
	c.ProgressForeground = randomColor()
	c.Background = randomColor()
	return c
}

func randomColor() card.Color {
	return card.Color(fmt.Sprintf("%06x", randomInt(1<<24)))
}

// discriminator returns "0" for half the users, like migrated accounts.
func discriminator() string {
	if randomInt(2) == 0 {
		return "0"
	}
	return strconv.FormatInt(1+randomInt(9999), 10)
}
