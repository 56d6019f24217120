package session_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/stretchr/testify/require"
)

func TestStepIndex(t *testing.T) {
	cases := []struct {
		module session.Module
		status session.Status
		want   int
	}{
		{session.ModuleConsulting, session.StatusIntake, 0},
		{session.ModuleConsulting, session.StatusPlanning, 3},
		{session.ModuleAudit, session.StatusSetup, 0},
		{session.ModuleAudit, session.StatusReview, 3},
		{session.ModuleBranding, session.StatusGenerating, 1},
		{session.ModuleTaxLegal, session.StatusComplete, 3},
	}
	for _, tc := range cases {
		got, err := session.StepIndex(tc.module, tc.status)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "%s/%s", tc.module, tc.status)

		back, err := session.StatusAt(tc.module, got)
		require.NoError(t, err)
		require.Equal(t, tc.status, back)
	}

	_, err := session.StepIndex(session.ModuleAudit, session.StatusDiagnosing)
	require.ErrorIs(t, err, session.ErrUnknownStatus)
	_, err = session.StepIndex("crm", session.StatusIntake)
	require.ErrorIs(t, err, session.ErrUnknownModule)
}

func TestNextPrevious(t *testing.T) {
	next, step, err := session.Next(session.ModuleAudit, session.StatusUpload)
	require.NoError(t, err)
	require.Equal(t, session.StatusAnalyzing, next)
	require.Equal(t, 2, step)

	prev, step, err := session.Previous(session.ModuleAudit, session.StatusUpload)
	require.NoError(t, err)
	require.Equal(t, session.StatusSetup, prev)
	require.Equal(t, 0, step)

	_, _, err = session.Next(session.ModuleBranding, session.StatusComplete)
	require.ErrorIs(t, err, session.ErrWrongStep)
	_, _, err = session.Previous(session.ModuleBranding, session.StatusIntake)
	require.ErrorIs(t, err, session.ErrWrongStep)
}

func TestCanContinue(t *testing.T) {
	problem := "Revenue dropped 30% since Q2 in two regions"

	require.NoError(t, session.CanContinue(session.ModuleConsulting, session.StatusIntake,
		session.StepInputs{ProblemDescription: problem, Domains: []string{"sales"}}))
	require.ErrorIs(t, session.CanContinue(session.ModuleConsulting, session.StatusIntake,
		session.StepInputs{ProblemDescription: "too short", Domains: []string{"sales"}}), session.ErrStepNotReady)
	require.ErrorIs(t, session.CanContinue(session.ModuleConsulting, session.StatusIntake,
		session.StepInputs{ProblemDescription: problem, Domains: []string{" "}}), session.ErrStepNotReady)

	require.ErrorIs(t, session.CanContinue(session.ModuleAudit, session.StatusSetup,
		session.StepInputs{AuditType: "financial"}), session.ErrStepNotReady)
	require.NoError(t, session.CanContinue(session.ModuleAudit, session.StatusSetup,
		session.StepInputs{AuditType: "financial", Standard: "ifrs"}))
	require.ErrorIs(t, session.CanContinue(session.ModuleAudit, session.StatusUpload,
		session.StepInputs{}), session.ErrStepNotReady)

	require.ErrorIs(t, session.CanContinue(session.ModuleBranding, session.StatusIntake,
		session.StepInputs{}), session.ErrStepNotReady)
	require.ErrorIs(t, session.CanContinue(session.ModuleTaxLegal, session.StatusIntake,
		session.StepInputs{Jurisdictions: []string{"DE"}, Question: "VAT?"}), session.ErrStepNotReady)

	require.ErrorIs(t, session.CanContinue(session.ModuleAudit, session.StatusComplete,
		session.StepInputs{}), session.ErrWrongStep)
}

func TestInputsFromSessionReadsIntakeArtifacts(t *testing.T) {
	brand, _ := json.Marshal(session.BrandInput{BusinessName: "Nordlicht"})
	tax, _ := json.Marshal(session.TaxInput{Jurisdictions: []string{"DE", "AT"}, Question: strings.Repeat("q", 25)})
	sess := &session.Session{Artifacts: map[string]json.RawMessage{
		session.ArtifactBrandInput: brand,
		session.ArtifactTaxInput:   tax,
	}}

	in := session.InputsFromSession(sess)
	require.Equal(t, "Nordlicht", in.BusinessName)
	require.Equal(t, []string{"DE", "AT"}, in.Jurisdictions)
	require.NoError(t, session.CanContinue(session.ModuleTaxLegal, session.StatusIntake, in))
}
