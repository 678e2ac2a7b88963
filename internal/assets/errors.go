package assets

import "errors"

// Sentinel kinds for asset errors.
var (
	ErrLoad        = errors.New("load embedded asset failed")
	ErrUnknownFont = errors.New("unknown font")
	ErrUnknownToy  = errors.New("unknown toy")
)
