package workflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/stretchr/testify/require"
)

const taxReply = `{"summary":"VAT registration is required in both countries.","obligations":[{"jurisdiction":"DE","title":"VAT registration"},{"jurisdiction":"AT","title":"VAT registration"}],"disclaimer":"General guidance only."}`

func TestTaxLegalFlow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.gateway.replies[ai.KindTaxLegal] = taxReply

	sess, err := e.sessions.Create(ctx, tenant, session.CreateRequest{Module: session.ModuleTaxLegal})
	require.NoError(t, err)

	sess, err = e.engine.AnalyzeTaxLegal(ctx, tenant, sess.ID, session.TaxInput{
		Jurisdictions: []string{"DE", "AT", "DE"},
		EntityType:    "GmbH",
		Question:      "Do we need VAT registration for online sales into Austria?",
	})
	require.NoError(t, err)
	require.Equal(t, session.StatusReview, sess.Status)
	require.Equal(t, 2, sess.CurrentStep)

	var res ai.TaxLegalResult
	require.NoError(t, json.Unmarshal(sess.Artifact(session.ArtifactTaxLegal), &res))
	require.Len(t, res.Obligations, 2)

	in := session.InputsFromSession(sess)
	require.Equal(t, []string{"DE", "AT"}, in.Jurisdictions)
	require.Contains(t, e.gateway.last().User, "jurisdictions: DE, AT")

	sess, err = e.engine.Complete(ctx, tenant, sess.ID)
	require.NoError(t, err)
	require.Equal(t, session.StatusComplete, sess.Status)

	_, err = e.engine.Complete(ctx, tenant, sess.ID)
	require.ErrorIs(t, err, session.ErrWrongStep)
}

func TestTaxLegalValidation(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	sess, err := e.sessions.Create(ctx, tenant, session.CreateRequest{Module: session.ModuleTaxLegal})
	require.NoError(t, err)

	_, err = e.engine.AnalyzeTaxLegal(ctx, tenant, sess.ID, session.TaxInput{Question: "Do we need VAT registration in Austria?"})
	require.ErrorIs(t, err, session.ErrStepNotReady)

	_, err = e.engine.AnalyzeTaxLegal(ctx, tenant, sess.ID, session.TaxInput{Jurisdictions: []string{"DE"}, Question: "VAT?"})
	require.ErrorIs(t, err, session.ErrStepNotReady)
}
