package finding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/repository"
)

// ActivityLogger records workflow events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// Service handles audit findings.
type Service struct {
	repo       Repository
	activities ActivityLogger
	logger     *slog.Logger
}

// NewService creates a new finding service.
func NewService(repo Repository, activities ActivityLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, activities: activities, logger: logger}
}

// CreateBatch stores the drafts as open findings of a session.
func (s *Service) CreateBatch(ctx context.Context, tenantID, sessionID string, drafts []Draft) ([]Finding, error) {
	findings, err := fromDrafts(tenantID, sessionID, drafts)
	if err != nil {
		return nil, err
	}
	if len(findings) == 0 {
		return findings, nil
	}

	if err := s.repo.CreateBatch(ctx, tenantID, findings); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("creating findings: %w", err)
	}
	return findings, nil
}

// List returns a session's findings, high severity first.
func (s *Service) List(ctx context.Context, tenantID, sessionID string) ([]Finding, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	findings, err := s.repo.ListBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing findings: %w", err)
	}
	sort.SliceStable(findings, func(i, j int) bool {
		ri, rj := findings[i].Severity.Rank(), findings[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return findings[i].Position < findings[j].Position
	})
	return findings, nil
}

// UpdateStatus is the only mutation a finding allows after creation.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, findingID string, status Status) (*Finding, error) {
	if findingID == "" || !status.Valid() {
		return nil, ErrInvalidInput
	}
	if err := s.repo.UpdateStatus(ctx, tenantID, findingID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFindingNotFound
		}
		return nil, fmt.Errorf("updating finding: %w", err)
	}

	f, err := s.repo.Get(ctx, tenantID, findingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFindingNotFound
		}
		return nil, fmt.Errorf("loading finding: %w", err)
	}

	if status == StatusAcknowledged && s.activities != nil {
		if err := s.activities.LogActivity(ctx, tenantID, &activity.ActivityEntry{
			SessionID:    &f.SessionID,
			SubjectID:    &f.ID,
			ActivityType: activity.TypeFindingAcknowledged,
			Summary:      fmt.Sprintf("acknowledged %s finding %q", f.Severity, f.Title),
		}); err != nil && s.logger != nil {
			s.logger.Warn("activity log failed", "finding_id", f.ID, "error", err)
		}
	}
	return f, nil
}

// Acknowledge marks a finding as reviewed.
func (s *Service) Acknowledge(ctx context.Context, tenantID, findingID string) (*Finding, error) {
	return s.UpdateStatus(ctx, tenantID, findingID, StatusAcknowledged)
}

// ReplaceForSession swaps a session's findings for a rerun analysis. The
// old set survives when the new one cannot be stored.
func (s *Service) ReplaceForSession(ctx context.Context, tenantID, sessionID string, drafts []Draft) ([]Finding, error) {
	findings, err := fromDrafts(tenantID, sessionID, drafts)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceBySession(ctx, tenantID, sessionID, findings); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("replacing findings: %w", err)
	}
	return findings, nil
}

// Restore puts back a set of findings exactly as listed, ids and statuses
// included. It undoes a replacement whose step could not be completed.
func (s *Service) Restore(ctx context.Context, tenantID, sessionID string, findings []Finding) error {
	if err := s.repo.ReplaceBySession(ctx, tenantID, sessionID, findings); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("restoring findings: %w", err)
	}
	return nil
}

func fromDrafts(tenantID, sessionID string, drafts []Draft) ([]Finding, error) {
	if tenantID == "" || sessionID == "" {
		return nil, ErrInvalidInput
	}
	now := time.Now()
	findings := make([]Finding, 0, len(drafts))
	for i, d := range drafts {
		if err := validateDraft(d); err != nil {
			return nil, fmt.Errorf("finding %d: %w", i, err)
		}
		findings = append(findings, Finding{
			ID:              uuid.NewString(),
			TenantID:        tenantID,
			SessionID:       sessionID,
			Title:           strings.TrimSpace(d.Title),
			Description:     d.Description,
			Category:        d.Category,
			Severity:        d.Severity,
			Status:          StatusOpen,
			FinancialImpact: d.FinancialImpact,
			Confidence:      d.Confidence,
			Recommendation:  d.Recommendation,
			Position:        i,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return findings, nil
}

func validateDraft(d Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return ErrInvalidInput
	}
	if !d.Severity.Valid() {
		return fmt.Errorf("%w: severity %q", ErrInvalidInput, d.Severity)
	}
	if d.Confidence != nil && (*d.Confidence < 0 || *d.Confidence > 1) {
		return fmt.Errorf("%w: confidence out of range", ErrInvalidInput)
	}
	return nil
}
