package workflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/session"
)

// AnalyzeTaxLegal stores the tax intake form and runs the analysis, moving
// the session intake → analyzing → review. On failure the session returns
// to intake with the form kept.
func (e *Engine) AnalyzeTaxLegal(ctx context.Context, tenantID, sessionID string, input session.TaxInput) (*session.Session, error) {
	sess, err := e.load(ctx, tenantID, sessionID, session.ModuleTaxLegal, session.StatusIntake)
	if err != nil {
		return nil, err
	}
	input.Jurisdictions = dedupe(input.Jurisdictions)
	input.Question = strings.TrimSpace(input.Question)
	if err := session.CanContinue(sess.Module, sess.Status, session.StepInputs{
		Jurisdictions: input.Jurisdictions,
		Question:      input.Question,
	}); err != nil {
		return nil, err
	}

	req, err := e.baseRequest(ctx, tenantID, sess, nil)
	if err != nil {
		return nil, err
	}
	req.Fields = map[string]string{
		"jurisdictions": strings.Join(input.Jurisdictions, ", "),
		"entity_type":   input.EntityType,
		"question":      input.Question,
	}

	form, err := encode(input)
	if err != nil {
		return nil, err
	}
	if _, err := e.moveTo(ctx, tenantID, sess, session.StatusAnalyzing, map[string]json.RawMessage{
		session.ArtifactTaxInput: form,
	}); err != nil {
		return nil, err
	}

	res, err := e.analyzer.TaxLegal(ctx, req)
	wctx := context.WithoutCancel(ctx)
	if err != nil {
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindTaxLegal, err)
		return nil, e.revert(wctx, tenantID, sess, err)
	}

	raw, err := encode(res)
	if err != nil {
		return nil, e.revert(wctx, tenantID, sess, err)
	}
	updated, err := e.moveTo(wctx, tenantID, sess, session.StatusReview, map[string]json.RawMessage{
		session.ArtifactTaxLegal: raw,
	})
	if err != nil {
		return nil, e.revert(wctx, tenantID, sess, err)
	}
	e.recordOutcome(wctx, tenantID, sess.ID, ai.KindTaxLegal, nil)
	return updated, nil
}
