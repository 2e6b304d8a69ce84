package engine

import "errors"

var (
	// ErrClosed is returned when work is submitted to a closed driver or pool.
	ErrClosed = errors.New("engine: closed")

	// ErrPanic is reported in Result.Err when a ray query panicked.
	ErrPanic = errors.New("engine: ray query panicked")
)
