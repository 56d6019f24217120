package finding

import "context"

// Repository provides persistence for findings.
type Repository interface {
	CreateBatch(ctx context.Context, tenantID string, findings []Finding) error
	Get(ctx context.Context, tenantID, id string) (*Finding, error)
	ListBySession(ctx context.Context, tenantID, sessionID string) ([]Finding, error)
	UpdateStatus(ctx context.Context, tenantID, id string, status Status) error
	// ReplaceBySession swaps a session's findings for the given set in one
	// transaction.
	ReplaceBySession(ctx context.Context, tenantID, sessionID string, findings []Finding) error
}
