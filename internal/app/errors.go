package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrBackpressure means the submission queue is full; retry later.
	ErrBackpressure = errors.New("submission queue is full")
	// ErrNotStarted is returned by submissions before Start or after Stop.
	ErrNotStarted = errors.New("service is not running")
	// ErrOutOfRange is returned when a requested window exceeds its cap.
	ErrOutOfRange = errors.New("requested range is too large")
	// ErrUnknownDriver is returned by OpenStore for an unsupported driver.
	ErrUnknownDriver = errors.New("unknown store driver")
)
