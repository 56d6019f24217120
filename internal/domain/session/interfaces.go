package session

import (
	"context"
	"encoding/json"
)

// Repository provides persistence for sessions.
type Repository interface {
	Create(ctx context.Context, tenantID string, sess *Session) error
	Get(ctx context.Context, tenantID, id string) (*Session, error)
	List(ctx context.Context, tenantID string, opts ListOptions) ([]SessionInfo, error)
	UpdateInputs(ctx context.Context, tenantID string, sess *Session) error
	// Advance writes status, step and the merged artifact patch. A non-nil
	// expectedVersion turns the write into a conditional update.
	Advance(ctx context.Context, tenantID, id string, status Status, step int, patch map[string]json.RawMessage, expectedVersion *int64) (*Session, error)
	Delete(ctx context.Context, tenantID, id string) error
}
