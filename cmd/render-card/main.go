package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/levelcard/internal/adapters/avatar"
	"github.com/okian/levelcard/internal/assets"
	app "github.com/okian/levelcard/internal/app"
	"github.com/okian/levelcard/internal/cardbench"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/internal/domain/levels"
	"github.com/okian/levelcard/pkg/logger"
)

// Default configuration constants.
const (
	defaultXP           = 3255
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultSamples      = 20
	defaultTimeout      = 30 * time.Second
	defaultBenchTimeout = 10 * time.Minute
	outputPermission    = 0600
)

func main() {
	var (
		output        = flag.String("o", "card.png", "Output PNG file")
		xp            = flag.Uint64("xp", defaultXP, "XP total of the card")
		rank          = flag.Int64("rank", 1, "Rank shown on the card")
		name          = flag.String("name", "levelcard", "Display name")
		discriminator = flag.String("discriminator", "0", "Legacy discriminator, 0 for none")
		font          = flag.String("font", "regular", "Font name or family")
		toy           = flag.String("toy", "none", "Toy sprite name")
		avatarFile    = flag.String("avatar", "", "Image file used as the avatar")
		bench         = flag.Int("bench", 0, "Render this many random cards instead of one")
		workers       = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent callers for -bench")
		outDir        = flag.String("out-dir", "", "Directory where -bench saves sample cards")
		logFile       = flag.String("log", "", "Log file for -bench output")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging")
		help          = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		cardbench.ShowHelp()
		return
	}

	if *bench > 0 {
		if err := cardbench.SetupLogging(*logFile); err != nil {
			os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
			os.Exit(1)
		}
	} else if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultBenchTimeout)
	defer cancel()

	renderer := app.New(app.WithLogger(logger.Get().Named("renderer")))
	if err := renderer.Start(ctx); err != nil {
		os.Stderr.WriteString("Failed to start renderer: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer renderer.Stop()

	if *bench > 0 {
		config := &cardbench.Config{
			Cards:     *bench,
			Workers:   *workers,
			Timeout:   defaultTimeout,
			OutputDir: *outDir,
			Samples:   defaultSamples,
			Verbose:   *verbose,
		}
		if _, err := cardbench.Run(ctx, config, renderer); err != nil {
			os.Stderr.WriteString("Bench failed: " + err.Error() + "\n")
			os.Exit(1)
		}
		return
	}

	c, err := buildContext(*xp, *rank, *name, *discriminator, *font, *toy, *avatarFile)
	if err != nil {
		os.Stderr.WriteString("Invalid card: " + err.Error() + "\n")
		os.Exit(1)
	}
	png, err := renderer.Render(ctx, c)
	if err != nil {
		os.Stderr.WriteString("Render failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := os.WriteFile(*output, png, outputPermission); err != nil {
		os.Stderr.WriteString("Write failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Get().Info(ctx, "card written",
		logger.String("file", *output),
		logger.Int("bytes", len(png)))
}

func buildContext(xp uint64, rank int64, name, discriminator, fontName, toyName, avatarFile string) (card.Context, error) {
	font, err := assets.ParseFont(fontName)
	if err != nil {
		return card.Context{}, err
	}
	toy, err := assets.ParseToy(toyName)
	if err != nil {
		return card.Context{}, err
	}

	var uri string
	if avatarFile != "" {
		raw, err := os.ReadFile(avatarFile)
		if err != nil {
			return card.Context{}, err
		}
		if uri, err = avatar.Encode(raw); err != nil {
			return card.Context{}, err
		}
	}

	custom := card.DefaultCustomization()
	custom.Font = font
	custom.Toy = toy
	return card.NewContext(levels.NewInfo(xp), rank, name, discriminator, custom, uri), nil
}
