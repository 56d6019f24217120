package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/atlas/internal/repository"
)

// Service handles company onboarding and profile edits.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new company service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// OnboardRequest defines onboarding inputs.
type OnboardRequest struct {
	Name          string
	Industry      string
	Size          Size
	Country       string
	Description   string
	AnnualRevenue *float64
}

// UpdateRequest carries a partial profile update. Nil fields are left alone.
type UpdateRequest struct {
	Name          *string
	Industry      *string
	Size          *Size
	Country       *string
	Description   *string
	AnnualRevenue *float64
}

// Onboard creates the tenant's company profile.
func (s *Service) Onboard(ctx context.Context, tenantID string, req OnboardRequest) (*Company, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}
	if req.Size != "" && !req.Size.Valid() {
		return nil, ErrInvalidInput
	}
	if req.AnnualRevenue != nil && *req.AnnualRevenue < 0 {
		return nil, ErrInvalidInput
	}

	now := time.Now()
	c := &Company{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		Name:          strings.TrimSpace(req.Name),
		Industry:      strings.TrimSpace(req.Industry),
		Size:          req.Size,
		Country:       strings.TrimSpace(req.Country),
		Description:   req.Description,
		AnnualRevenue: req.AnnualRevenue,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, tenantID, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyOnboarded
		}
		return nil, fmt.Errorf("creating company: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("company onboarded", "tenant_id", tenantID, "company_id", c.ID)
	}
	return c, nil
}

// Get fetches the tenant's company profile.
func (s *Service) Get(ctx context.Context, tenantID string) (*Company, error) {
	c, err := s.repo.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("getting company: %w", err)
	}
	return c, nil
}

// Update applies a partial update to the profile.
func (s *Service) Update(ctx context.Context, tenantID string, req UpdateRequest) (*Company, error) {
	c, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrInvalidInput
		}
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Industry != nil {
		c.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Size != nil {
		if *req.Size != "" && !req.Size.Valid() {
			return nil, ErrInvalidInput
		}
		c.Size = *req.Size
	}
	if req.Country != nil {
		c.Country = strings.TrimSpace(*req.Country)
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.AnnualRevenue != nil {
		if *req.AnnualRevenue < 0 {
			return nil, ErrInvalidInput
		}
		c.AnnualRevenue = req.AnnualRevenue
	}
	c.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, tenantID, c); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("updating company: %w", err)
	}
	return c, nil
}
