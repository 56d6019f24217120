package workflow

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/domain/session"
)

// Diagnose runs the diagnosis for a consulting session at intake and moves
// it to diagnosing.
func (e *Engine) Diagnose(ctx context.Context, tenantID, sessionID string, fresh FreshRows) (*session.Session, error) {
	sess, err := e.load(ctx, tenantID, sessionID, session.ModuleConsulting, session.StatusIntake)
	if err != nil {
		return nil, err
	}
	if err := session.CanContinue(sess.Module, sess.Status, session.InputsFromSession(sess)); err != nil {
		return nil, err
	}

	req, err := e.baseRequest(ctx, tenantID, sess, fresh)
	if err != nil {
		return nil, err
	}
	res, err := e.analyzer.Diagnose(ctx, req)
	wctx := context.WithoutCancel(ctx)
	if err != nil {
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindDiagnose, err)
		return nil, err
	}

	raw, err := encode(res)
	if err != nil {
		return nil, err
	}
	updated, err := e.moveTo(wctx, tenantID, sess, session.StatusDiagnosing, map[string]json.RawMessage{
		session.ArtifactDiagnosis: raw,
	})
	if err != nil {
		return nil, err
	}
	e.recordOutcome(wctx, tenantID, sess.ID, ai.KindDiagnose, nil)
	return updated, nil
}

// SimulateScenarios builds strategy scenarios from the diagnosis and moves
// the session to simulating.
func (e *Engine) SimulateScenarios(ctx context.Context, tenantID, sessionID string) (*session.Session, error) {
	sess, err := e.load(ctx, tenantID, sessionID, session.ModuleConsulting, session.StatusDiagnosing)
	if err != nil {
		return nil, err
	}
	diagnosis, err := requireArtifact(sess, session.ArtifactDiagnosis)
	if err != nil {
		return nil, err
	}

	req, err := e.baseRequest(ctx, tenantID, sess, nil)
	if err != nil {
		return nil, err
	}
	req.Prior = map[string]json.RawMessage{session.ArtifactDiagnosis: diagnosis}

	res, err := e.analyzer.Scenarios(ctx, req)
	wctx := context.WithoutCancel(ctx)
	if err != nil {
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindScenarios, err)
		return nil, err
	}

	raw, err := encode(res)
	if err != nil {
		return nil, err
	}
	updated, err := e.moveTo(wctx, tenantID, sess, session.StatusSimulating, map[string]json.RawMessage{
		session.ArtifactScenarios: raw,
	})
	if err != nil {
		return nil, err
	}
	e.recordOutcome(wctx, tenantID, sess.ID, ai.KindScenarios, nil)
	return updated, nil
}

// PlanExecution writes the execution plan for the chosen scenario, creates
// one milestone per phase and moves the session to planning. An empty
// scenario lets the model follow its own recommendation. On a rerun after
// going back, milestones whose titles match a new phase keep their owner,
// due date and status; the rest are replaced.
func (e *Engine) PlanExecution(ctx context.Context, tenantID, sessionID, scenario string) (*session.Session, error) {
	sess, err := e.load(ctx, tenantID, sessionID, session.ModuleConsulting, session.StatusSimulating)
	if err != nil {
		return nil, err
	}
	diagnosis, err := requireArtifact(sess, session.ArtifactDiagnosis)
	if err != nil {
		return nil, err
	}
	scenarios, err := requireArtifact(sess, session.ArtifactScenarios)
	if err != nil {
		return nil, err
	}

	req, err := e.baseRequest(ctx, tenantID, sess, nil)
	if err != nil {
		return nil, err
	}
	req.Prior = map[string]json.RawMessage{
		session.ArtifactDiagnosis: diagnosis,
		session.ArtifactScenarios: scenarios,
	}
	if s := strings.TrimSpace(scenario); s != "" {
		req.Fields = map[string]string{"selected_scenario": s}
	}

	res, err := e.analyzer.ExecutionPlan(ctx, req)
	wctx := context.WithoutCancel(ctx)
	if err != nil {
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindExecutionPlan, err)
		return nil, err
	}

	raw, err := encode(res)
	if err != nil {
		return nil, err
	}

	var previous []milestone.Milestone
	if e.milestones != nil {
		if previous, err = e.milestones.List(wctx, tenantID, sess.ID); err != nil {
			return nil, err
		}
		if _, err := e.milestones.CreateFromPlan(wctx, tenantID, sess.ID, PlanMilestones(res, time.Now())); err != nil {
			return nil, err
		}
	}

	updated, err := e.moveTo(wctx, tenantID, sess, session.StatusPlanning, map[string]json.RawMessage{
		session.ArtifactExecutionPlan: raw,
	})
	if err != nil {
		if e.milestones != nil {
			e.restoreMilestones(wctx, tenantID, sess.ID, previous)
		}
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindExecutionPlan, err)
		return nil, err
	}
	e.recordOutcome(wctx, tenantID, sess.ID, ai.KindExecutionPlan, nil)
	return updated, nil
}

// PlanMilestones turns plan phases into milestone drafts. Due dates stack
// phase durations from the start day.
func PlanMilestones(plan *ai.ExecutionPlanResult, start time.Time) []milestone.Draft {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	weeks := 0
	drafts := make([]milestone.Draft, 0, len(plan.Phases))
	for _, p := range plan.Phases {
		d := milestone.Draft{
			Title:       p.Name,
			Description: p.Description,
			Owner:       p.Owner,
		}
		if p.DurationWeeks > 0 {
			weeks += p.DurationWeeks
			due := day.AddDate(0, 0, 7*weeks)
			d.DueDate = &due
		}
		drafts = append(drafts, d)
	}
	return drafts
}
