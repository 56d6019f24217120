package milestone

import "errors"

var (
	// ErrMilestoneNotFound indicates the milestone doesn't exist.
	ErrMilestoneNotFound = errors.New("milestone not found")
	// ErrSessionNotFound indicates the owning session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput indicates invalid milestone input.
	ErrInvalidInput = errors.New("invalid milestone input")
)
