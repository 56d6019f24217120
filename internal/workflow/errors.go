package workflow

import "errors"

// ErrWrongModule indicates a step was requested on a session of another module.
var ErrWrongModule = errors.New("step does not belong to the session's module")
