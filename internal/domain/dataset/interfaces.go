package dataset

import "context"

// Repository provides persistence for datasets.
type Repository interface {
	Create(ctx context.Context, tenantID string, ds *Dataset) error
	Get(ctx context.Context, tenantID, id string) (*Dataset, error)
	List(ctx context.Context, tenantID string) ([]Dataset, error)
	Delete(ctx context.Context, tenantID, id string) error
}
