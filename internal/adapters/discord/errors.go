package discord

import "errors"

// Sentinel kinds for interaction errors.
var (
	ErrUnrecognizedCommand = errors.New("unrecognized command")
	ErrNoInvoker           = errors.New("interaction has no invoking user")
	ErrNoTarget            = errors.New("interaction has no target user")
	ErrNoGuild             = errors.New("interaction is not in a guild")
	ErrRespond             = errors.New("failed to answer interaction")
)
