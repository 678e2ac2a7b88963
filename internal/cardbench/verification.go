package cardbench

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/okian/levelcard/pkg/logger"
)

// verifyResults checks both passes produced the same decodable PNG for every
// card. A difference means output depends on scheduling.
func verifyResults(ctx context.Context, samples []Sample, first, second [][]byte, stats *Stats) error {
	logger.Get().Info(ctx, "verifying results")

	for i := range samples {
		a, b := first[i], second[i]
		if a == nil || b == nil {
			continue
		}
		if !bytes.Equal(a, b) {
			stats.Mismatches++
			logger.Get().Warn(ctx, "render differs between passes", logger.String("card", samples[i].ID))
			continue
		}
		if _, err := png.DecodeConfig(bytes.NewReader(a)); err != nil {
			stats.Mismatches++
			logger.Get().Warn(ctx, "render is not a png", logger.String("card", samples[i].ID), logger.Error(err))
		}
	}

	if stats.Mismatches > 0 {
		return fmt.Errorf("%w: %d cards", ErrMismatch, stats.Mismatches)
	}
	logger.Get().Info(ctx, "result verification completed")
	return nil
}
