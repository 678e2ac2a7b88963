// Package config defines service configuration and its loading layers.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile optionally tees logs into a size-rotated file.
	LogFile string `koanf:"log_file"`

	// LogMaxSizeMB is the rotation threshold for LogFile.
	LogMaxSizeMB int `koanf:"log_max_size_mb"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of render workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds how many renders may wait for a worker.
	QueueSize int `koanf:"queue_size"`

	// DiscordToken enables the bot when set.
	DiscordToken string `koanf:"discord_token"`

	// DiscordGuildID registers commands on one guild instead of globally.
	DiscordGuildID string `koanf:"discord_guild_id"`

	// DatabaseURL is the Postgres DSN for XP and customization lookups.
	DatabaseURL string `koanf:"database_url"`

	// AvatarTimeoutMS bounds one avatar download attempt.
	AvatarTimeoutMS int `koanf:"avatar_timeout_ms"`

	// AvatarRetries is how many times a failed avatar download is retried.
	AvatarRetries int `koanf:"avatar_retries"`

	// RenderTimeoutMS bounds how long a command waits for its card.
	RenderTimeoutMS int `koanf:"render_timeout_ms"`
}

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogMaxSizeMB:    10,
		Addr:            ":9080",
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       256,
		AvatarTimeoutMS: 5000,
		AvatarRetries:   2,
		RenderTimeoutMS: 10_000,
	}
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.LogMaxSizeMB < 0:
		return fmt.Errorf("%w: log_max_size_mb must not be negative", ErrInvalidConfig)
	case c.AvatarTimeoutMS < 1:
		return fmt.Errorf("%w: avatar_timeout_ms must be positive", ErrInvalidConfig)
	case c.AvatarRetries < 0:
		return fmt.Errorf("%w: avatar_retries must not be negative", ErrInvalidConfig)
	case c.RenderTimeoutMS < 1:
		return fmt.Errorf("%w: render_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

// AvatarTimeout returns AvatarTimeoutMS as a duration.
func (c *Config) AvatarTimeout() time.Duration {
	return time.Duration(c.AvatarTimeoutMS) * time.Millisecond
}

// RenderTimeout returns RenderTimeoutMS as a duration.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutMS) * time.Millisecond
}
