package report

import "errors"

var (
	// ErrNotAudit indicates an export was requested for a non-audit session.
	ErrNotAudit = errors.New("reports are only available for audit sessions")
	// ErrNotReady indicates the audit has not reached review yet.
	ErrNotReady = errors.New("audit has not been analyzed yet")
	// ErrUnknownFormat indicates an export format other than pdf or xlsx.
	ErrUnknownFormat = errors.New("unknown report format")
	// ErrRender indicates the document could not be rendered. No output is written.
	ErrRender = errors.New("report rendering failed")
)
