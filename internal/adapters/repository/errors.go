package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrNotFound       = errors.New("athlete not found")
	ErrInvalidWorkout = errors.New("invalid workout")
	ErrClosed         = errors.New("store closed")
)
