package cardbench

import "time"

// Generator constants.
const (
	randomFloatDivisor = 1000000
	defaultMaxXP       = 2000000
	nameLength         = 8
)

// Runner constants.
const (
	CallerChannelMultiplier = 2
	PercentageMultiplier    = 100
	DefaultRenderTimeout    = 30 * time.Second
	directoryPermission     = 0750
	filePermission          = 0600
)
