package ai_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	reply   string
	err     error
	prompts []ai.Prompt
}

func (s *stubGateway) Complete(_ context.Context, p ai.Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	return s.reply, s.err
}

func TestAnalyzer_SetsKindAndParses(t *testing.T) {
	gw := &stubGateway{reply: `{"scenarios":[{"name":"Premium","probability":0.6}],"recommended":"Premium"}`}
	a := ai.NewAnalyzer(gw, nil)

	res, err := a.Scenarios(context.Background(), ai.Request{Kind: ai.KindDiagnose, Problem: "x"})
	require.NoError(t, err)
	require.Equal(t, "Premium", res.Recommended)
	require.Len(t, gw.prompts, 1)
	require.Equal(t, ai.KindScenarios, gw.prompts[0].Kind)
	require.True(t, strings.HasPrefix(gw.prompts[0].User, "Task: scenarios"))
}

func TestAnalyzer_GatewayErrorNotMaskedByBrandingFallback(t *testing.T) {
	gw := &stubGateway{err: &ai.GatewayError{Status: 429, Err: ai.ErrRateLimited}}
	a := ai.NewAnalyzer(gw, nil)

	_, err := a.Branding(context.Background(), ai.Request{}, "Nordlicht")
	require.ErrorIs(t, err, ai.ErrRateLimited)
}

func TestAnalyzer_ModuleSpecificParseFailure(t *testing.T) {
	gw := &stubGateway{reply: "not json"}
	a := ai.NewAnalyzer(gw, nil)

	brand, err := a.Branding(context.Background(), ai.Request{}, "Nordlicht")
	require.NoError(t, err)
	require.True(t, brand.Fallback)
	require.Equal(t, "Nordlicht", brand.BrandName)

	_, err = a.Diagnose(context.Background(), ai.Request{})
	var perr *ai.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "not json", perr.Raw)

	_, err = a.TaxLegal(context.Background(), ai.Request{})
	require.ErrorAs(t, err, &perr)

	_, err = a.AuditAnalysis(context.Background(), ai.Request{})
	require.ErrorAs(t, err, &perr)
}

func TestAnalyzer_NoGateway(t *testing.T) {
	_, err := ai.NewAnalyzer(nil, nil).ExecutionPlan(context.Background(), ai.Request{})
	require.ErrorIs(t, err, ai.ErrAnalysisFailed)
}
