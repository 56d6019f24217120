package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited indicates the gateway answered 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded indicates the gateway answered 402.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrAnalysisFailed covers every other gateway failure.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrSchemaMismatch indicates valid JSON that does not have the expected shape.
	ErrSchemaMismatch = errors.New("ai response does not match expected schema")
	// ErrUnknownKind indicates a request kind with no system instruction.
	ErrUnknownKind = errors.New("unknown request kind")
)

// GatewayError carries the upstream status code of a failed completion call.
// Status is zero when no response was received.
type GatewayError struct {
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("gateway: %v", e.Err)
	}
	return fmt.Sprintf("gateway returned %d: %v", e.Status, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ParseError reports a completion that is not valid JSON. Raw holds the
// text as received for diagnostics.
type ParseError struct {
	Kind Kind
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse AI response for %s: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
