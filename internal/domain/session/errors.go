package session

import "errors"

var (
	// ErrSessionNotFound indicates the session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
	// ErrUnauthenticated indicates no tenant context was supplied.
	ErrUnauthenticated = errors.New("no authenticated tenant")
	// ErrConflict indicates the session changed since the caller read it.
	ErrConflict = errors.New("session modified concurrently")
	// ErrUnknownModule indicates a module with no status sequence.
	ErrUnknownModule = errors.New("unknown module")
	// ErrUnknownStatus indicates a status outside the module's sequence.
	ErrUnknownStatus = errors.New("unknown status for module")
	// ErrStepNotReady indicates the current step's fields do not pass validation.
	ErrStepNotReady = errors.New("step inputs incomplete")
	// ErrWrongStep indicates an action was requested from a status that does not allow it.
	ErrWrongStep = errors.New("action not available at current step")
)
