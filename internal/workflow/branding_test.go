package workflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/stretchr/testify/require"
)

func TestBrandingFallsBackOnMalformedOutput(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.gateway.replies[ai.KindBrandingStrategy] = "Here's a lovely brand idea: be bold!"

	sess, err := e.sessions.Create(ctx, tenant, session.CreateRequest{Module: session.ModuleBranding})
	require.NoError(t, err)

	sess, err = e.engine.GenerateBranding(ctx, tenant, sess.ID, session.BrandInput{BusinessName: "Nordlicht", Tone: "calm"})
	require.NoError(t, err)
	require.Equal(t, session.StatusReview, sess.Status)
	require.Equal(t, 2, sess.CurrentStep)

	var brand ai.BrandingResult
	require.NoError(t, json.Unmarshal(sess.Artifact(session.ArtifactBranding), &brand))
	require.True(t, brand.Fallback)
	require.Equal(t, "Nordlicht", brand.BrandName)

	var form session.BrandInput
	require.NoError(t, json.Unmarshal(sess.Artifact(session.ArtifactBrandInput), &form))
	require.Equal(t, "calm", form.Tone)
	require.Contains(t, e.gateway.last().User, "business_name: Nordlicht")
}

func TestBrandingGatewayFailureReturnsToIntake(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.gateway.errs[ai.KindBrandingStrategy] = &ai.GatewayError{Status: 402, Err: ai.ErrQuotaExceeded}

	sess, err := e.sessions.Create(ctx, tenant, session.CreateRequest{Module: session.ModuleBranding})
	require.NoError(t, err)

	_, err = e.engine.GenerateBranding(ctx, tenant, sess.ID, session.BrandInput{BusinessName: "Nordlicht"})
	require.ErrorIs(t, err, ai.ErrQuotaExceeded)

	after, err := e.sessions.Get(ctx, tenant, sess.ID)
	require.NoError(t, err)
	require.Equal(t, session.StatusIntake, after.Status)
	require.Nil(t, after.Artifact(session.ArtifactBranding))
}

func TestBrandingRequiresBusinessName(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	sess, err := e.sessions.Create(ctx, tenant, session.CreateRequest{Module: session.ModuleBranding})
	require.NoError(t, err)

	_, err = e.engine.GenerateBranding(ctx, tenant, sess.ID, session.BrandInput{BusinessName: "  "})
	require.ErrorIs(t, err, session.ErrStepNotReady)
}

func TestBrandingCancelledCallerReturnsToIntake(t *testing.T) {
	e := newEnv(t)
	sess, err := e.sessions.Create(context.Background(), tenant, session.CreateRequest{Module: session.ModuleBranding})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.gateway.hooks[ai.KindBrandingStrategy] = func(callCtx context.Context) error {
		cancel()
		return callCtx.Err()
	}

	_, err = e.engine.GenerateBranding(ctx, tenant, sess.ID, session.BrandInput{BusinessName: "Nordlicht"})
	require.ErrorIs(t, err, context.Canceled)

	after, err := e.sessions.Get(context.Background(), tenant, sess.ID)
	require.NoError(t, err)
	require.Equal(t, session.StatusIntake, after.Status)
	require.Equal(t, 0, after.CurrentStep)
}
