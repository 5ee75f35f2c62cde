package repository

import "errors"

var (
	// ErrInvalidTransition is returned when a complaint status update does
	// not follow the pipeline order.
	ErrInvalidTransition = errors.New("invalid status transition")
)
