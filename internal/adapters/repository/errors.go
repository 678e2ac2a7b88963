package repository

import "errors"

// Sentinel kinds for lookup errors.
var (
	ErrInvalidID = errors.New("invalid snowflake id")
	ErrQuery     = errors.New("lookup query failed")
	ErrConnect   = errors.New("database connection failed")
)
