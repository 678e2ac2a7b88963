package avatar

import "errors"

// Sentinel kinds for avatar errors.
var (
	ErrFetch    = errors.New("avatar fetch failed")
	ErrNotImage = errors.New("avatar is not an image")
	ErrTooLarge = errors.New("avatar exceeds size limit")
)
