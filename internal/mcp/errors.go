package mcp

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/rpggio/atlas/internal/report"
	"github.com/rpggio/atlas/internal/workflow"
)

// ErrUnknownMethod indicates a method or tool name the handler does not serve.
var ErrUnknownMethod = errors.New("unknown method")

// errInvalidParams wraps argument decoding failures.
var errInvalidParams = errors.New("invalid params")

// Error codes returned to clients.
const (
	CodeRateLimited       = "RATE_LIMITED"
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeAnalysisFailed    = "ANALYSIS_FAILED"
	CodeAIParseFailed     = "AI_PARSE_FAILED"
	CodeSchemaMismatch    = "SCHEMA_MISMATCH"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeStepNotReady      = "STEP_NOT_READY"
	CodeWrongStep         = "WRONG_STEP"
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyOnboarded  = "ALREADY_ONBOARDED"
	CodeDatasetParse      = "DATASET_PARSE_FAILED"
	CodeReportUnavailable = "REPORT_UNAVAILABLE"
	CodeReportFailed      = "REPORT_FAILED"
	CodeMethodNotFound    = "METHOD_NOT_FOUND"
)

// maxRawDetail caps the raw model text echoed back in AI_PARSE_FAILED details.
const maxRawDetail = 2000

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to client error codes. It returns nil for
// errors with no client-facing meaning.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var parseErr *ai.ParseError
	if errors.As(err, &parseErr) {
		raw := truncateUTF8(parseErr.Raw, maxRawDetail)
		return &APIError{Code: CodeAIParseFailed, Message: "failed to parse AI response", Details: map[string]string{"raw": raw}, RecoveryHint: "Retry the step"}
	}
	var datasetErr *dataset.ParseError
	if errors.As(err, &datasetErr) {
		return &APIError{Code: CodeDatasetParse, Message: err.Error(), RecoveryHint: "Upload a non-empty .csv or .xlsx file"}
	}

	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return &APIError{Code: CodeRateLimited, Message: "rate limited", RecoveryHint: "Wait a moment and retry"}
	case errors.Is(err, ai.ErrQuotaExceeded):
		return &APIError{Code: CodeQuotaExceeded, Message: "quota exceeded", RecoveryHint: "Top up AI credits"}
	case errors.Is(err, ai.ErrSchemaMismatch):
		return &APIError{Code: CodeSchemaMismatch, Message: err.Error(), RecoveryHint: "Retry the step"}
	case errors.Is(err, ai.ErrAnalysisFailed):
		return &APIError{Code: CodeAnalysisFailed, Message: "analysis failed", RecoveryHint: "Retry later"}
	case errors.Is(err, session.ErrUnauthenticated):
		return &APIError{Code: CodeUnauthenticated, Message: "no authenticated tenant", RecoveryHint: "Send a valid bearer token"}
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, finding.ErrSessionNotFound),
		errors.Is(err, milestone.ErrSessionNotFound):
		return &APIError{Code: CodeSessionNotFound, Message: "session not found", RecoveryHint: "Check the session id with list_sessions"}
	case errors.Is(err, session.ErrConflict):
		return &APIError{Code: CodeConflict, Message: "session modified concurrently", RecoveryHint: "Reload the session and retry with its version"}
	case errors.Is(err, session.ErrStepNotReady):
		return &APIError{Code: CodeStepNotReady, Message: err.Error(), RecoveryHint: "Complete the step's fields first"}
	case errors.Is(err, session.ErrWrongStep), errors.Is(err, workflow.ErrWrongModule):
		return &APIError{Code: CodeWrongStep, Message: err.Error(), RecoveryHint: "Check the session's module and status with get_session"}
	case errors.Is(err, company.ErrAlreadyOnboarded):
		return &APIError{Code: CodeAlreadyOnboarded, Message: "company already onboarded", RecoveryHint: "Use update_company"}
	case errors.Is(err, company.ErrCompanyNotFound),
		errors.Is(err, dataset.ErrDatasetNotFound),
		errors.Is(err, finding.ErrFindingNotFound),
		errors.Is(err, milestone.ErrMilestoneNotFound):
		return &APIError{Code: CodeNotFound, Message: err.Error(), RecoveryHint: "Check ID spelling"}
	case errors.Is(err, report.ErrNotAudit), errors.Is(err, report.ErrNotReady):
		return &APIError{Code: CodeReportUnavailable, Message: err.Error(), RecoveryHint: "Run audit_analyze first"}
	case errors.Is(err, report.ErrRender):
		return &APIError{Code: CodeReportFailed, Message: "report rendering failed"}
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: CodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, errInvalidParams),
		errors.Is(err, session.ErrInvalidInput),
		errors.Is(err, session.ErrUnknownModule),
		errors.Is(err, session.ErrUnknownStatus),
		errors.Is(err, company.ErrInvalidInput),
		errors.Is(err, dataset.ErrInvalidInput),
		errors.Is(err, finding.ErrInvalidInput),
		errors.Is(err, milestone.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, report.ErrUnknownFormat):
		return &APIError{Code: CodeValidationFailed, Message: err.Error()}
	default:
		return nil
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
