package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/domain/session"
)

// ActivityLogger records analysis outcomes.
type ActivityLogger interface {
	LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// FreshRows maps dataset ids to a parse kept in memory since upload. Rows
// from a fresh parse are fed to the model instead of the persisted sample.
type FreshRows map[string]*dataset.Parsed

// Config holds the services an Engine drives.
type Config struct {
	Sessions   *session.Service
	Companies  *company.Service
	Datasets   *dataset.Service
	Findings   *finding.Service
	Milestones *milestone.Service
	Analyzer   *ai.Analyzer
	Activities ActivityLogger
	Logger     *slog.Logger
}

// Engine runs the AI-backed steps of the advisory modules. Each step loads
// the session, checks the sequencer, calls the analyzer and writes the
// artifact and the new status back. A failed step leaves the session where
// it was. Writes after the model call run detached from the caller's
// cancellation, so an answer that arrived is either stored whole or rolled
// back whole.
type Engine struct {
	sessions   *session.Service
	companies  *company.Service
	datasets   *dataset.Service
	findings   *finding.Service
	milestones *milestone.Service
	analyzer   *ai.Analyzer
	activities ActivityLogger
	logger     *slog.Logger
}

// NewEngine creates a workflow engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		sessions:   cfg.Sessions,
		companies:  cfg.Companies,
		datasets:   cfg.Datasets,
		findings:   cfg.Findings,
		milestones: cfg.Milestones,
		analyzer:   cfg.Analyzer,
		activities: cfg.Activities,
		logger:     cfg.Logger,
	}
}

// Complete closes a session whose last working step is done.
func (e *Engine) Complete(ctx context.Context, tenantID, sessionID string) (*session.Session, error) {
	sess, err := e.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	next, _, err := session.Next(sess.Module, sess.Status)
	if err != nil {
		return nil, err
	}
	if next != session.StatusComplete {
		return nil, fmt.Errorf("%w: %s session is at %s", session.ErrWrongStep, sess.Module, sess.Status)
	}
	return e.moveTo(ctx, tenantID, sess, session.StatusComplete, nil)
}

// Back moves one status back. Artifacts from later steps are kept.
func (e *Engine) Back(ctx context.Context, tenantID, sessionID string) (*session.Session, error) {
	return e.sessions.Back(ctx, tenantID, sessionID)
}

// load fetches a session and checks its module and current status.
func (e *Engine) load(ctx context.Context, tenantID, sessionID string, module session.Module, status session.Status) (*session.Session, error) {
	sess, err := e.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Module != module {
		return nil, fmt.Errorf("%w: session runs %s, not %s", ErrWrongModule, sess.Module, module)
	}
	if sess.Status != status {
		return nil, fmt.Errorf("%w: session is at %s, expected %s", session.ErrWrongStep, sess.Status, status)
	}
	return sess, nil
}

func (e *Engine) moveTo(ctx context.Context, tenantID string, sess *session.Session, status session.Status, patch map[string]json.RawMessage) (*session.Session, error) {
	step, err := session.StepIndex(sess.Module, status)
	if err != nil {
		return nil, err
	}
	return e.sessions.Advance(ctx, tenantID, sess.ID, session.AdvanceRequest{
		Status: status,
		Step:   step,
		Patch:  patch,
	})
}

// revert puts a session back to the status it had before a failed step.
// The write ignores cancellation: a caller that went away mid-step must not
// leave the session parked at an intermediate status.
func (e *Engine) revert(ctx context.Context, tenantID string, sess *session.Session, cause error) error {
	if _, err := e.sessions.Advance(context.WithoutCancel(ctx), tenantID, sess.ID, session.AdvanceRequest{
		Status: sess.Status,
		Step:   sess.CurrentStep,
	}); err != nil {
		if e.logger != nil {
			e.logger.Error("failed to revert session", "session_id", sess.ID, "status", sess.Status, "error", err)
		}
		return errors.Join(cause, err)
	}
	return cause
}

// restoreFindings puts back the findings a failed step replaced.
func (e *Engine) restoreFindings(ctx context.Context, tenantID, sessionID string, previous []finding.Finding) {
	if err := e.findings.Restore(ctx, tenantID, sessionID, previous); err != nil && e.logger != nil {
		e.logger.Error("failed to restore findings", "session_id", sessionID, "error", err)
	}
}

// restoreMilestones puts back the milestones a failed step replaced.
func (e *Engine) restoreMilestones(ctx context.Context, tenantID, sessionID string, previous []milestone.Milestone) {
	if err := e.milestones.Restore(ctx, tenantID, sessionID, previous); err != nil && e.logger != nil {
		e.logger.Error("failed to restore milestones", "session_id", sessionID, "error", err)
	}
}

// baseRequest collects the company profile and the session's own fields.
func (e *Engine) baseRequest(ctx context.Context, tenantID string, sess *session.Session, fresh FreshRows) (ai.Request, error) {
	req := ai.Request{
		Problem: sess.ProblemDescription,
		Context: sess.Context,
		Domains: sess.Domains,
	}

	co, err := e.companyContext(ctx, tenantID)
	if err != nil {
		return ai.Request{}, err
	}
	req.Company = co

	sets, err := e.datasetContexts(ctx, tenantID, sess.DatasetsUsed, fresh)
	if err != nil {
		return ai.Request{}, err
	}
	req.Datasets = sets
	return req, nil
}

// companyContext returns nil when the tenant has not onboarded yet.
func (e *Engine) companyContext(ctx context.Context, tenantID string) (*ai.CompanyContext, error) {
	if e.companies == nil {
		return nil, nil
	}
	co, err := e.companies.Get(ctx, tenantID)
	if err != nil {
		if errors.Is(err, company.ErrCompanyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ai.CompanyContext{
		Name:          co.Name,
		Industry:      co.Industry,
		Size:          string(co.Size),
		Country:       co.Country,
		Description:   co.Description,
		AnnualRevenue: co.AnnualRevenue,
	}, nil
}

func (e *Engine) datasetContexts(ctx context.Context, tenantID string, ids []string, fresh FreshRows) ([]ai.DatasetContext, error) {
	if len(ids) == 0 || e.datasets == nil {
		return nil, nil
	}
	if len(ids) > ai.MaxDatasets {
		ids = ids[:ai.MaxDatasets]
	}
	sets, err := e.datasets.GetMany(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ai.DatasetContext, 0, len(sets))
	for _, ds := range sets {
		rows := ds.Sample
		if p, ok := fresh[ds.ID]; ok && p != nil {
			rows = p.Head(ai.MaxSampleRows)
		}
		out = append(out, ai.DatasetContext{
			Name:     ds.Name,
			Type:     string(ds.Type),
			RowCount: ds.RowCount,
			Summary:  ds.Summary,
			Headers:  ds.Headers,
			Rows:     rows,
		})
	}
	return out, nil
}

func (e *Engine) recordOutcome(ctx context.Context, tenantID, sessionID string, kind ai.Kind, cause error) {
	entry := &activity.ActivityEntry{
		SessionID:    &sessionID,
		ActivityType: activity.TypeAnalysisCompleted,
		Summary:      fmt.Sprintf("%s analysis completed", kind),
	}
	details := map[string]string{"kind": string(kind)}
	if cause != nil {
		entry.ActivityType = activity.TypeAnalysisFailed
		entry.Summary = fmt.Sprintf("%s analysis failed", kind)
		details["error"] = cause.Error()
		if e.logger != nil {
			e.logger.Warn("analysis step failed", "session_id", sessionID, "kind", kind, "error", cause)
		}
	}
	if b, err := json.Marshal(details); err == nil {
		entry.Details = string(b)
	}

	if e.activities == nil {
		return
	}
	if err := e.activities.LogActivity(ctx, tenantID, entry); err != nil && e.logger != nil {
		e.logger.Warn("activity log failed", "type", entry.ActivityType, "error", err)
	}
}

func encode(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding artifact: %w", err)
	}
	return b, nil
}

// requireArtifact fails when an earlier step's artifact is missing.
func requireArtifact(sess *session.Session, name string) (json.RawMessage, error) {
	raw := sess.Artifact(name)
	if raw == nil {
		return nil, fmt.Errorf("%w: %s has not been produced", session.ErrStepNotReady, name)
	}
	return raw, nil
}
