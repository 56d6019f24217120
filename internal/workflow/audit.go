package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/session"
)

// AuditSetup carries the setup step's fields. Empty fields keep the values
// stored on the session.
type AuditSetup struct {
	AuditType string
	Standard  string
}

// ConfigureAudit saves the audit type and standard and moves the session
// from setup to upload.
func (e *Engine) ConfigureAudit(ctx context.Context, tenantID, sessionID string, setup AuditSetup) (*session.Session, error) {
	sess, err := e.load(ctx, tenantID, sessionID, session.ModuleAudit, session.StatusSetup)
	if err != nil {
		return nil, err
	}

	in := session.InputsFromSession(sess)
	var inputs session.InputsRequest
	if setup.AuditType != "" {
		in.AuditType = setup.AuditType
		inputs.AuditType = &setup.AuditType
	}
	if setup.Standard != "" {
		in.Standard = setup.Standard
		inputs.Standard = &setup.Standard
	}
	if err := session.CanContinue(sess.Module, sess.Status, in); err != nil {
		return nil, err
	}

	if inputs.AuditType != nil || inputs.Standard != nil {
		if sess, err = e.sessions.UpdateInputs(ctx, tenantID, sessionID, inputs); err != nil {
			return nil, err
		}
	}
	return e.moveTo(ctx, tenantID, sess, session.StatusUpload, nil)
}

// AttachDatasets records which datasets an audit reviews. Every id must
// resolve to a dataset of the tenant.
func (e *Engine) AttachDatasets(ctx context.Context, tenantID, sessionID string, datasetIDs []string) (*session.Session, error) {
	sess, err := e.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Module != session.ModuleAudit {
		return nil, fmt.Errorf("%w: session runs %s", ErrWrongModule, sess.Module)
	}
	if sess.Status != session.StatusSetup && sess.Status != session.StatusUpload {
		return nil, fmt.Errorf("%w: datasets are attached before analysis", session.ErrWrongStep)
	}

	ids := dedupe(datasetIDs)
	if _, err := e.datasets.GetMany(ctx, tenantID, ids); err != nil {
		return nil, err
	}
	return e.sessions.UpdateInputs(ctx, tenantID, sessionID, session.InputsRequest{DatasetsUsed: ids})
}

// AnalyzeAudit runs the audit analysis. The session sits at analyzing while
// the model works, then moves to review with the findings persisted. On any
// failure it returns to upload.
func (e *Engine) AnalyzeAudit(ctx context.Context, tenantID, sessionID string, fresh FreshRows) (*session.Session, error) {
	sess, err := e.load(ctx, tenantID, sessionID, session.ModuleAudit, session.StatusUpload)
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
	req.Fields = map[string]string{
		"audit_type": sess.AuditType,
		"standard":   sess.Standard,
	}

	if _, err := e.moveTo(ctx, tenantID, sess, session.StatusAnalyzing, nil); err != nil {
		return nil, err
	}

	res, err := e.analyzer.AuditAnalysis(ctx, req)
	wctx := context.WithoutCancel(ctx)
	if err != nil {
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindAuditAnalysis, err)
		return nil, e.revert(wctx, tenantID, sess, err)
	}

	result, err := encode(res)
	if err != nil {
		return nil, e.revert(wctx, tenantID, sess, err)
	}
	recommendations, err := encode(res.Recommendations)
	if err != nil {
		return nil, e.revert(wctx, tenantID, sess, err)
	}

	previous, err := e.findings.List(wctx, tenantID, sess.ID)
	if err != nil {
		return nil, e.revert(wctx, tenantID, sess, err)
	}
	if _, err := e.findings.ReplaceForSession(wctx, tenantID, sess.ID, FindingDrafts(res)); err != nil {
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindAuditAnalysis, err)
		return nil, e.revert(wctx, tenantID, sess, err)
	}

	updated, err := e.moveTo(wctx, tenantID, sess, session.StatusReview, map[string]json.RawMessage{
		session.ArtifactFindings:        result,
		session.ArtifactRecommendations: recommendations,
	})
	if err != nil {
		e.restoreFindings(wctx, tenantID, sess.ID, previous)
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindAuditAnalysis, err)
		return nil, e.revert(wctx, tenantID, sess, err)
	}
	e.recordOutcome(wctx, tenantID, sess.ID, ai.KindAuditAnalysis, nil)
	return updated, nil
}

// AcknowledgeFinding marks one of the session's findings as reviewed.
func (e *Engine) AcknowledgeFinding(ctx context.Context, tenantID, sessionID, findingID string) (*finding.Finding, error) {
	sess, err := e.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Module != session.ModuleAudit {
		return nil, fmt.Errorf("%w: session runs %s", ErrWrongModule, sess.Module)
	}

	list, err := e.findings.List(ctx, tenantID, sess.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range list {
		if f.ID == findingID {
			return e.findings.Acknowledge(ctx, tenantID, findingID)
		}
	}
	return nil, finding.ErrFindingNotFound
}

// FindingDrafts converts analysis findings into drafts for persistence.
func FindingDrafts(res *ai.AuditAnalysisResult) []finding.Draft {
	drafts := make([]finding.Draft, 0, len(res.Findings))
	for _, f := range res.Findings {
		drafts = append(drafts, finding.Draft{
			Title:           f.Title,
			Description:     f.Description,
			Category:        f.Category,
			Severity:        finding.Severity(f.Severity),
			FinancialImpact: f.FinancialImpact,
			Confidence:      f.Confidence,
			Recommendation:  f.Recommendation,
		})
	}
	return drafts
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
