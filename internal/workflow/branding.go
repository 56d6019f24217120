package workflow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/session"
)

// GenerateBranding stores the brand intake form and builds the brand
// platform, moving the session intake → generating → review. An answer
// that cannot be parsed yields the default platform for the business name.
// A gateway failure returns the session to intake with the form kept.
func (e *Engine) GenerateBranding(ctx context.Context, tenantID, sessionID string, input session.BrandInput) (*session.Session, error) {
	sess, err := e.load(ctx, tenantID, sessionID, session.ModuleBranding, session.StatusIntake)
	if err != nil {
		return nil, err
	}
	input.BusinessName = strings.TrimSpace(input.BusinessName)
	if err := session.CanContinue(sess.Module, sess.Status, session.StepInputs{BusinessName: input.BusinessName}); err != nil {
		return nil, err
	}

	req, err := e.baseRequest(ctx, tenantID, sess, nil)
	if err != nil {
		return nil, err
	}
	req.Fields = map[string]string{
		"business_name":   input.BusinessName,
		"industry":        input.Industry,
		"target_audience": input.TargetAudience,
		"values":          strings.Join(input.Values, ", "),
		"tone":            input.Tone,
	}

	form, err := encode(input)
	if err != nil {
		return nil, err
	}
	if _, err := e.moveTo(ctx, tenantID, sess, session.StatusGenerating, map[string]json.RawMessage{
		session.ArtifactBrandInput: form,
	}); err != nil {
		return nil, err
	}

	res, err := e.analyzer.Branding(ctx, req, input.BusinessName)
	wctx := context.WithoutCancel(ctx)
	if err != nil {
		e.recordOutcome(wctx, tenantID, sess.ID, ai.KindBrandingStrategy, err)
		return nil, e.revert(wctx, tenantID, sess, err)
	}

	raw, err := encode(res)
	if err != nil {
		return nil, e.revert(wctx, tenantID, sess, err)
	}
	updated, err := e.moveTo(wctx, tenantID, sess, session.StatusReview, map[string]json.RawMessage{
		session.ArtifactBranding: raw,
	})
	if err != nil {
		return nil, e.revert(wctx, tenantID, sess, err)
	}
	e.recordOutcome(wctx, tenantID, sess.ID, ai.KindBrandingStrategy, nil)
	return updated, nil
}
