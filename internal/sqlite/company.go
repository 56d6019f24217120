package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/repository"
)

// CompanyRepository implements company.Repository for SQLite
type CompanyRepository struct {
	db *DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts the tenant's company profile
func (r *CompanyRepository) Create(ctx context.Context, tenantID string, c *company.Company) error {
	query := `
		INSERT INTO companies (
			id, tenant_id, name, industry, size, country,
			description, annual_revenue, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		tenantID,
		c.Name,
		c.Industry,
		c.Size,
		c.Country,
		c.Description,
		c.AnnualRevenue,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetByTenant retrieves the tenant's company profile
func (r *CompanyRepository) GetByTenant(ctx context.Context, tenantID string) (*company.Company, error) {
	query := `
		SELECT
			id, tenant_id, name, industry, size, country,
			description, annual_revenue, created_at, updated_at
		FROM companies
		WHERE tenant_id = ?
	`

	var c company.Company
	var revenue sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(
		&c.ID,
		&c.TenantID,
		&c.Name,
		&c.Industry,
		&c.Size,
		&c.Country,
		&c.Description,
		&revenue,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if revenue.Valid {
		c.AnnualRevenue = &revenue.Float64
	}
	return &c, nil
}

// Update overwrites the editable profile fields
func (r *CompanyRepository) Update(ctx context.Context, tenantID string, c *company.Company) error {
	query := `
		UPDATE companies
		SET name = ?, industry = ?, size = ?, country = ?,
			description = ?, annual_revenue = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		c.Name,
		c.Industry,
		c.Size,
		c.Country,
		c.Description,
		c.AnnualRevenue,
		c.UpdatedAt,
		c.ID,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return requireAffected(result)
}
