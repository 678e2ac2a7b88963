package card

import "errors"

// Sentinel kinds for card errors.
var (
	ErrInvalidColorLength = errors.New("color hex data length must be exactly 6 characters")
	ErrInvalidColor       = errors.New("color must be hexadecimal")
	ErrInvalidFont        = errors.New("font is not an embedded font")
	ErrInvalidToy         = errors.New("toy is not an embedded toy")
	ErrInvalidAvatar      = errors.New("avatar must be an embedded image data URI")
	ErrNotNumeric         = errors.New("integerhumanize: value is not numeric")
	ErrTemplateCompile    = errors.New("compile card template failed")
	ErrTemplateFill       = errors.New("fill card template failed")
)
