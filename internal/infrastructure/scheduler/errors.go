package scheduler

import "errors"

var (
	// ErrInvalidConfig indicates the trigger configuration failed validation
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrUnknownJob indicates a manual trigger referenced a job name that
	// is not registered
	ErrUnknownJob = errors.New("unknown scheduled job")
)
