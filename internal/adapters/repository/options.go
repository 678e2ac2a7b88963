package repository

import "time"

// Option configures a PostgresStore.
type Option func(*postgresOptions)

type postgresOptions struct {
	maxConns     int32
	minConns     int32
	queryTimeout time.Duration
	appName      string
}

const (
	defaultMaxConns     = 16
	defaultMinConns     = 2
	defaultQueryTimeout = 5 * time.Second
)

func defaultPostgresOptions() postgresOptions {
	return postgresOptions{
		maxConns:     defaultMaxConns,
		minConns:     defaultMinConns,
		queryTimeout: defaultQueryTimeout,
		appName:      "levelcard",
	}
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(o *postgresOptions) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// WithMinConns keeps n connections warm.
func WithMinConns(n int32) Option {
	return func(o *postgresOptions) {
		if n >= 0 {
			o.minConns = n
		}
	}
}

// WithQueryTimeout bounds each lookup.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *postgresOptions) {
		if d > 0 {
			o.queryTimeout = d
		}
	}
}

// WithApplicationName sets the application_name reported to the server.
func WithApplicationName(name string) Option {
	return func(o *postgresOptions) {
		if name != "" {
			o.appName = name
		}
	}
}
