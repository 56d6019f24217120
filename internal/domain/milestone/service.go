package milestone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

// Service manages the execution workspace milestones.
type Service struct {
	repo       Repository
	activities ActivityLogger
	logger     *slog.Logger
}

// NewService creates a new milestone service.
func NewService(repo Repository, activities ActivityLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, activities: activities, logger: logger}
}

// CreateFromPlan replaces a session's milestones with one per plan phase.
// A phase whose title matches an existing milestone keeps that milestone's
// id, owner, due date and status, so rerunning the plan does not undo work
// tracked in the workspace.
func (s *Service) CreateFromPlan(ctx context.Context, tenantID, sessionID string, drafts []Draft) ([]Milestone, error) {
	if tenantID == "" || sessionID == "" {
		return nil, ErrInvalidInput
	}
	for i, d := range drafts {
		if strings.TrimSpace(d.Title) == "" {
			return nil, fmt.Errorf("milestone %d: %w", i, ErrInvalidInput)
		}
	}

	existing, err := s.repo.ListBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading milestones: %w", err)
	}
	byTitle := make(map[string][]Milestone, len(existing))
	for _, m := range existing {
		key := titleKey(m.Title)
		byTitle[key] = append(byTitle[key], m)
	}

	now := time.Now()
	milestones := make([]Milestone, 0, len(drafts))
	for i, d := range drafts {
		m := Milestone{
			ID:          uuid.NewString(),
			TenantID:    tenantID,
			SessionID:   sessionID,
			Title:       strings.TrimSpace(d.Title),
			Description: d.Description,
			Owner:       d.Owner,
			DueDate:     d.DueDate,
			Status:      StatusNotStarted,
			Position:    i,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		key := titleKey(d.Title)
		if prev := byTitle[key]; len(prev) > 0 {
			old := prev[0]
			byTitle[key] = prev[1:]
			m.ID = old.ID
			m.Status = old.Status
			m.CreatedAt = old.CreatedAt
			if old.Owner != "" {
				m.Owner = old.Owner
			}
			if old.DueDate != nil {
				m.DueDate = old.DueDate
			}
		}
		milestones = append(milestones, m)
	}

	if err := s.repo.ReplaceBySession(ctx, tenantID, sessionID, milestones); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("replacing milestones: %w", err)
	}
	return milestones, nil
}

// Restore puts back a set of milestones exactly as listed.
func (s *Service) Restore(ctx context.Context, tenantID, sessionID string, milestones []Milestone) error {
	if err := s.repo.ReplaceBySession(ctx, tenantID, sessionID, milestones); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("restoring milestones: %w", err)
	}
	return nil
}

func titleKey(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// List returns a session's milestones in plan order.
func (s *Service) List(ctx context.Context, tenantID, sessionID string) ([]Milestone, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListBySession(ctx, tenantID, sessionID)
}

// Cycle advances the milestone to the next status in the rotation.
func (s *Service) Cycle(ctx context.Context, tenantID, id string) (*Milestone, error) {
	m, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	from := m.Status
	m.Status = NextStatus(m.Status)
	m.UpdatedAt = time.Now()
	if err := s.update(ctx, tenantID, m); err != nil {
		return nil, err
	}

	if s.activities != nil {
		if err := s.activities.LogActivity(ctx, tenantID, &activity.ActivityEntry{
			SessionID:    &m.SessionID,
			SubjectID:    &m.ID,
			ActivityType: activity.TypeMilestoneCycled,
			Summary:      fmt.Sprintf("%s: %s -> %s", m.Title, from, m.Status),
		}); err != nil && s.logger != nil {
			s.logger.Warn("activity log failed", "milestone_id", m.ID, "error", err)
		}
	}
	return m, nil
}

// Assign sets the owner and due date. A nil due date clears it.
func (s *Service) Assign(ctx context.Context, tenantID, id, owner string, dueDate *time.Time) (*Milestone, error) {
	m, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	m.Owner = strings.TrimSpace(owner)
	m.DueDate = dueDate
	m.UpdatedAt = time.Now()
	if err := s.update(ctx, tenantID, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) get(ctx context.Context, tenantID, id string) (*Milestone, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	m, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMilestoneNotFound
		}
		return nil, fmt.Errorf("loading milestone: %w", err)
	}
	return m, nil
}

func (s *Service) update(ctx context.Context, tenantID string, m *Milestone) error {
	if err := s.repo.Update(ctx, tenantID, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMilestoneNotFound
		}
		return fmt.Errorf("updating milestone: %w", err)
	}
	return nil
}
