package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrInvalidSize = errors.New("worker pool needs at least one worker")
	ErrNoQueue     = errors.New("worker pool needs a queue")
	ErrNoPipeline  = errors.New("worker pool needs a pipeline")
	ErrStarted     = errors.New("worker pool already started")
)
