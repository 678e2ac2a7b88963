package cardbench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/logger"
)

// ErrMismatch reports that the same card rendered to different bytes.
var ErrMismatch = errors.New("render output mismatch")

// Renderer draws cards.
type Renderer interface {
	Render(ctx context.Context, c card.Context) ([]byte, error)
}

type result struct {
	index int
	png   []byte
	err   error
}

// Run renders every generated card twice, concurrently and then again in
// reverse order, and checks both passes agree byte for byte.
func Run(ctx context.Context, config *Config, r Renderer) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting render bench",
		logger.Int("cards", config.Cards),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.String("outputDir", config.OutputDir))

	if config.Cards < 1 || config.Workers < 1 {
		return stats, fmt.Errorf("cards and workers must be positive, got %d and %d", config.Cards, config.Workers)
	}

	samples, err := generateSamples(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("card generation failed: %w", err)
	}

	first := renderAll(ctx, config, r, samples, false, stats)
	second := renderAll(ctx, config, r, samples, true, stats)

	verifyErr := verifyResults(ctx, samples, first, second, stats)

	if config.OutputDir != "" {
		if err := saveSamples(ctx, config, samples, first, stats); err != nil {
			logger.Get().Warn(ctx, "failed to save samples", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verifyErr != nil {
		return stats, verifyErr
	}
	if stats.RendersFailed > 0 {
		return stats, fmt.Errorf("%d of %d renders failed", stats.RendersFailed, stats.RendersAttempts)
	}
	logger.Get().Info(ctx, "bench completed successfully")
	return stats, nil
}

// renderAll fans samples out over config.Workers callers.
func renderAll(ctx context.Context, config *Config, r Renderer, samples []Sample, reverse bool, stats *Stats) [][]byte {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}

	indexes := make(chan int, config.Workers*CallerChannelMultiplier)
	results := make(chan result, config.Workers*CallerChannelMultiplier)

	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				rctx, cancel := context.WithTimeout(ctx, timeout)
				png, err := r.Render(rctx, samples[i].Card)
				cancel()
				results <- result{index: i, png: png, err: err}
			}
		}()
	}

	go func() {
		defer close(indexes)
		for n := range samples {
			i := n
			if reverse {
				i = len(samples) - 1 - n
			}
			select {
			case indexes <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([][]byte, len(samples))
	for res := range results {
		stats.RendersAttempts++
		if res.err != nil {
			stats.RendersFailed++
			logger.Get().Warn(ctx, "render failed",
				logger.String("card", samples[res.index].ID),
				logger.Error(res.err))
			continue
		}
		stats.RendersOK++
		stats.BytesTotal += int64(len(res.png))
		out[res.index] = res.png
		if config.Verbose {
			logger.Get().Debug(ctx, "rendered",
				logger.String("card", samples[res.index].ID),
				logger.Int("bytes", len(res.png)))
		}
	}
	return out
}

// saveSamples writes the first config.Samples cards to config.OutputDir.
func saveSamples(ctx context.Context, config *Config, samples []Sample, pngs [][]byte, stats *Stats) error {
	if err := os.MkdirAll(config.OutputDir, directoryPermission); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	for i := 0; i < len(samples) && stats.SamplesSaved < config.Samples; i++ {
		if pngs[i] == nil {
			continue
		}
		name := filepath.Join(config.OutputDir, samples[i].ID+".png")
		if err := os.WriteFile(name, pngs[i], filePermission); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		stats.SamplesSaved++
	}
	logger.Get().Info(ctx, "samples saved",
		logger.String("dir", config.OutputDir),
		logger.Int("count", stats.SamplesSaved))
	return nil
}

// displayFinalStats logs the final bench statistics.
func displayFinalStats(stats *Stats) {
	var successRate, rendersPerSecond float64
	if stats.RendersAttempts > 0 {
		successRate = float64(stats.RendersOK) / float64(stats.RendersAttempts) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		rendersPerSecond = float64(stats.RendersAttempts) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("cardsGenerated", stats.CardsGenerated),
		logger.Int("renders", stats.RendersAttempts),
		logger.Int("rendersOK", stats.RendersOK),
		logger.Int("rendersFailed", stats.RendersFailed),
		logger.Int("mismatches", stats.Mismatches),
		logger.Int64("bytes", stats.BytesTotal),
		logger.Int("samplesSaved", stats.SamplesSaved),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("rendersPerSecond", rendersPerSecond))
}
