// Package cardbench renders batches of random cards to measure throughput
// and check that output depends only on the card.
package cardbench

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/okian/levelcard/pkg/logger"
)

const logFileMaxSizeMB = 50

// SetupLogging logs to both console and file. If logFile is empty, a
// timestamped filename is generated.
func SetupLogging(logFile string) error {
	if logFile == "" {
		logFile = "bench_log_" + time.Now().Format("20060102_150405") + ".log"
	}
	if err := logger.Init(logger.WithFile(logFile, logFileMaxSizeMB)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the render tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Level Card Render Tool
=====================

Renders one card to a file, or benches the renderer with random cards.

Usage:
  go run ./cmd/render-card [options]

Options:
  -o string
        Output PNG file (default "card.png")
  -xp uint
        XP total of the card (default 3255)
  -rank int
        Rank shown on the card (default 1)
  -name string
        Display name (default "levelcard")
  -discriminator string
        Legacy discriminator, "0" for none (default "0")
  -font string
        Font name or family (default "regular")
  -toy string
        Toy sprite name or "none" (default "none")
  -avatar string
        PNG/JPEG/WebP file used as the avatar
  -bench int
        Render this many random cards instead of one
  -workers int
        Concurrent callers for -bench (default CPU cores * 2)
  -out-dir string
        Directory where -bench saves sample cards
  -log string
        Log file for -bench output (default: bench_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/render-card -xp 50000 -name alice -font bold -toy fox -o alice.png
  go run ./cmd/render-card -bench 2000 -workers 16 -out-dir ./samples
`)
}
