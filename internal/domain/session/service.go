package session

import (
	"context"
	"encoding/json"
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

// Service is the session store: lifecycle and step persistence for
// advisory workflows.
type Service struct {
	sessions   Repository
	activities ActivityLogger
	logger     *slog.Logger
}

// NewService creates a new session service.
func NewService(sessions Repository, activities ActivityLogger, logger *slog.Logger) *Service {
	return &Service{
		sessions:   sessions,
		activities: activities,
		logger:     logger,
	}
}

// CreateRequest describes a new workflow session.
type CreateRequest struct {
	Module             Module
	CreatedBy          string
	Title              string
	ProblemDescription string
	Context            string
	Domains            []string
	AuditType          string
	Standard           string
	DatasetsUsed       []string
}

// InputsRequest updates step form fields. Nil fields are left alone.
type InputsRequest struct {
	Title              *string
	ProblemDescription *string
	Context            *string
	Domains            []string
	AuditType          *string
	Standard           *string
	DatasetsUsed       []string
}

// AdvanceRequest moves a session to a new status and step and merges
// artifact patches. ExpectedVersion is optional; without it the write is
// last-write-wins.
type AdvanceRequest struct {
	Status          Status
	Step            int
	Patch           map[string]json.RawMessage
	ExpectedVersion *int64
}

// Create starts a new workflow session at the first step of its module.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Session, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrUnauthenticated
	}
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	initial, err := InitialStatus(req.Module)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := time.Now()
	sess := &Session{
		ID:                 uuid.NewString(),
		TenantID:           tenantID,
		CreatedBy:          req.CreatedBy,
		Module:             req.Module,
		Status:             initial,
		CurrentStep:        0,
		Title:              strings.TrimSpace(req.Title),
		ProblemDescription: req.ProblemDescription,
		Context:            req.Context,
		Domains:            req.Domains,
		AuditType:          req.AuditType,
		Standard:           req.Standard,
		DatasetsUsed:       req.DatasetsUsed,
		Artifacts:          map[string]json.RawMessage{},
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.sessions.Create(ctx, tenantID, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		SessionID:    &sess.ID,
		ActivityType: activity.TypeSessionCreated,
		Summary:      fmt.Sprintf("started %s session %s", sess.Module, sess.ID),
	})
	return sess, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrUnauthenticated
	}
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	sess, err := s.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	return sess, nil
}

// List returns the tenant's sessions, newest first.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]SessionInfo, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrUnauthenticated
	}
	if opts.Module != "" && !opts.Module.Valid() {
		return nil, ErrInvalidInput
	}
	return s.sessions.List(ctx, tenantID, opts)
}

// UpdateInputs saves step form fields without moving the sequencer.
func (s *Service) UpdateInputs(ctx context.Context, tenantID, sessionID string, req InputsRequest) (*Session, error) {
	sess, err := s.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		sess.Title = strings.TrimSpace(*req.Title)
	}
	if req.ProblemDescription != nil {
		sess.ProblemDescription = *req.ProblemDescription
	}
	if req.Context != nil {
		sess.Context = *req.Context
	}
	if req.Domains != nil {
		sess.Domains = req.Domains
	}
	if (req.AuditType != nil || req.Standard != nil) && sess.Module != ModuleAudit {
		return nil, fmt.Errorf("%w: audit_type and standard only apply to audit sessions", ErrInvalidInput)
	}
	// The audit type is required once set; the standard may be cleared.
	if req.AuditType != nil {
		if !contains(AuditTypes, *req.AuditType) {
			return nil, fmt.Errorf("%w: audit_type %q", ErrInvalidInput, *req.AuditType)
		}
		sess.AuditType = *req.AuditType
	}
	if req.Standard != nil {
		if *req.Standard != "" && !contains(AuditStandards, *req.Standard) {
			return nil, fmt.Errorf("%w: standard %q", ErrInvalidInput, *req.Standard)
		}
		sess.Standard = *req.Standard
	}
	if req.DatasetsUsed != nil {
		sess.DatasetsUsed = req.DatasetsUsed
	}
	sess.UpdatedAt = time.Now()

	if err := s.sessions.UpdateInputs(ctx, tenantID, sess); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("updating session inputs: %w", err)
	}
	sess.Version++
	return sess, nil
}

// Advance sets status and step to exactly the requested values and merges
// the artifact patch key by key. Ordering against the module sequence is not
// enforced here.
func (s *Service) Advance(ctx context.Context, tenantID, sessionID string, req AdvanceRequest) (*Session, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, ErrUnauthenticated
	}
	if sessionID == "" || req.Step < 0 {
		return nil, ErrInvalidInput
	}
	for name, raw := range req.Patch {
		if strings.TrimSpace(name) == "" || !json.Valid(raw) {
			return nil, fmt.Errorf("%w: artifact %q is not valid JSON", ErrInvalidInput, name)
		}
	}

	current, err := s.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := StepIndex(current.Module, req.Status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.sessions.Advance(ctx, tenantID, sessionID, req.Status, req.Step, req.Patch, req.ExpectedVersion)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrSessionNotFound
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("advancing session: %w", err)
	}

	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		SessionID:    &sessionID,
		ActivityType: activity.TypeSessionAdvanced,
		Summary:      fmt.Sprintf("%s -> %s (step %d)", current.Status, updated.Status, updated.CurrentStep),
	})
	return updated, nil
}

// Back moves one status back in the module sequence. Artifacts produced by
// later steps stay in place.
func (s *Service) Back(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	sess, err := s.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	prev, step, err := Previous(sess.Module, sess.Status)
	if err != nil {
		return nil, err
	}
	return s.Advance(ctx, tenantID, sessionID, AdvanceRequest{Status: prev, Step: step})
}

// Delete removes a session. Findings and milestones go with it.
func (s *Service) Delete(ctx context.Context, tenantID, sessionID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return ErrUnauthenticated
	}
	if sessionID == "" {
		return ErrInvalidInput
	}
	if err := s.sessions.Delete(ctx, tenantID, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("deleting session: %w", err)
	}

	s.logActivity(ctx, tenantID, &activity.ActivityEntry{
		ActivityType: activity.TypeSessionDeleted,
		Summary:      fmt.Sprintf("deleted session %s", sessionID),
	})
	return nil
}

// ValidateCreate checks the enum fields of a create request. An audit
// session needs its type up front; the standard may wait for the setup step.
func ValidateCreate(req CreateRequest) error {
	if !req.Module.Valid() {
		return fmt.Errorf("%w: unknown module %q", ErrInvalidInput, req.Module)
	}
	if req.Module == ModuleAudit {
		if !contains(AuditTypes, req.AuditType) {
			return fmt.Errorf("%w: audit_type %q", ErrInvalidInput, req.AuditType)
		}
		if req.Standard != "" && !contains(AuditStandards, req.Standard) {
			return fmt.Errorf("%w: standard %q", ErrInvalidInput, req.Standard)
		}
	}
	return nil
}

func (s *Service) logActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) {
	if s.activities == nil {
		return
	}
	if err := s.activities.LogActivity(ctx, tenantID, entry); err != nil && s.logger != nil {
		s.logger.Warn("activity log failed", "type", entry.ActivityType, "error", err)
	}
}
