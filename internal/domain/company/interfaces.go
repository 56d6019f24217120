package company

import "context"

// Repository provides persistence for company profiles.
type Repository interface {
	Create(ctx context.Context, tenantID string, c *Company) error
	GetByTenant(ctx context.Context, tenantID string) (*Company, error)
	Update(ctx context.Context, tenantID string, c *Company) error
}
