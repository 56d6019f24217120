package milestone

import "context"

// Repository provides persistence for milestones.
type Repository interface {
	CreateBatch(ctx context.Context, tenantID string, milestones []Milestone) error
	Get(ctx context.Context, tenantID, id string) (*Milestone, error)
	ListBySession(ctx context.Context, tenantID, sessionID string) ([]Milestone, error)
	Update(ctx context.Context, tenantID string, m *Milestone) error
	// ReplaceBySession swaps a session's milestones for the given set in one
	// transaction.
	ReplaceBySession(ctx context.Context, tenantID, sessionID string, milestones []Milestone) error
}
