package cardbench

import (
	"time"
)

// Config holds configuration for a render bench.
type Config struct {
	Cards     int           // Number of distinct cards to generate
	Workers   int           // Number of concurrent callers
	Timeout   time.Duration // Per render timeout
	OutputDir string        // Directory for sample PNGs; empty skips saving
	Samples   int           // Number of PNGs saved to OutputDir
	MaxXP     uint64        // Upper bound for generated xp
	Verbose   bool          // Log every render
}

// Stats holds bench statistics.
type Stats struct {
	CardsGenerated  int
	RendersAttempts int
	RendersOK       int
	RendersFailed   int
	Mismatches      int
	BytesTotal      int64
	SamplesSaved    int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
