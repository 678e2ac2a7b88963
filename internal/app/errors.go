package service

import "errors"

// Render failure kinds. Every error Render returns wraps exactly one of
// these together with its cause.
var (
	// ErrTemplate means the context could not be substituted into the card
	// template, usually a cosmetic value outside the embedded asset set.
	ErrTemplate = errors.New("template fill failed")
	// ErrVector means the filled document could not be parsed or drawn.
	ErrVector = errors.New("vector render failed")
	// ErrBufferAllocation means the document's size gives no usable canvas.
	ErrBufferAllocation = errors.New("pixel buffer allocation failed")
	// ErrEncoding means the pixels could not be encoded as PNG.
	ErrEncoding = errors.New("png encoding failed")
	// ErrWorkerLost means the job ended without a result: the pool was
	// stopped or the worker died mid render.
	ErrWorkerLost = errors.New("render worker lost")
	// ErrPoolInit means the worker pool could not be built. It is fatal.
	ErrPoolInit = errors.New("render pool init failed")
)
