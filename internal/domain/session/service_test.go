package session_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/rpggio/atlas/internal/repository"
	"github.com/rpggio/atlas/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	activities := &mocks.ActivityLogger{}
	repo.On("Create", ctx, "tenant1", mock.AnythingOfType("*session.Session")).Return(nil)
	activities.On("LogActivity", ctx, "tenant1", mock.Anything).Return(nil)

	svc := session.NewService(repo, activities, nil)
	sess, err := svc.Create(ctx, "tenant1", session.CreateRequest{
		Module:    session.ModuleAudit,
		AuditType: "financial",
		CreatedBy: "ana",
	})
	require.NoError(t, err)
	require.Equal(t, session.StatusSetup, sess.Status)
	require.Equal(t, 0, sess.CurrentStep)
	require.Equal(t, int64(1), sess.Version)
	require.Equal(t, "ana", sess.CreatedBy)
	activities.AssertExpectations(t)
}

func TestSessionService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := session.NewService(&mocks.SessionRepository{}, nil, nil)

	_, err := svc.Create(ctx, "", session.CreateRequest{Module: session.ModuleConsulting})
	require.ErrorIs(t, err, session.ErrUnauthenticated)

	cases := map[string]session.CreateRequest{
		"unknown module":     {Module: "crm"},
		"missing audit type": {Module: session.ModuleAudit},
		"bad audit type":     {Module: session.ModuleAudit, AuditType: "forensic"},
		"bad standard":       {Module: session.ModuleAudit, AuditType: "it", Standard: "pci"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(ctx, "tenant1", req)
			require.ErrorIs(t, err, session.ErrInvalidInput)
		})
	}
}

func TestSessionService_ActivityFailureDoesNotFailCreate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	activities := &mocks.ActivityLogger{}
	repo.On("Create", ctx, "tenant1", mock.Anything).Return(nil)
	activities.On("LogActivity", ctx, "tenant1", mock.Anything).Return(repository.ErrForeignKeyViolation)

	svc := session.NewService(repo, activities, nil)
	_, err := svc.Create(ctx, "tenant1", session.CreateRequest{Module: session.ModuleBranding})
	require.NoError(t, err)
}

func TestSessionService_AdvanceSetsExactValues(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	current := &session.Session{ID: "s1", TenantID: "tenant1", Module: session.ModuleConsulting, Status: session.StatusPlanning, CurrentStep: 3}
	patch := map[string]json.RawMessage{session.ArtifactDiagnosis: json.RawMessage(`{"summary":"x"}`)}

	repo.On("Get", ctx, "tenant1", "s1").Return(current, nil)
	repo.On("Advance", ctx, "tenant1", "s1", session.StatusDiagnosing, 1, patch, (*int64)(nil)).
		Return(&session.Session{ID: "s1", Module: session.ModuleConsulting, Status: session.StatusDiagnosing, CurrentStep: 1}, nil)

	svc := session.NewService(repo, nil, nil)
	updated, err := svc.Advance(ctx, "tenant1", "s1", session.AdvanceRequest{
		Status: session.StatusDiagnosing,
		Step:   1,
		Patch:  patch,
	})
	require.NoError(t, err)
	require.Equal(t, session.StatusDiagnosing, updated.Status)
	require.Equal(t, 1, updated.CurrentStep)
	repo.AssertExpectations(t)
}

func TestSessionService_AdvanceRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Get", ctx, "tenant1", "s1").
		Return(&session.Session{ID: "s1", Module: session.ModuleBranding, Status: session.StatusIntake}, nil)

	svc := session.NewService(repo, nil, nil)

	_, err := svc.Advance(ctx, "tenant1", "s1", session.AdvanceRequest{
		Status: session.StatusReview,
		Patch:  map[string]json.RawMessage{"branding": json.RawMessage(`{broken`)},
	})
	require.ErrorIs(t, err, session.ErrInvalidInput)

	_, err = svc.Advance(ctx, "tenant1", "s1", session.AdvanceRequest{Status: session.StatusSetup})
	require.ErrorIs(t, err, session.ErrInvalidInput)

	_, err = svc.Advance(ctx, "tenant1", "s1", session.AdvanceRequest{Status: session.StatusReview, Step: -1})
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestSessionService_AdvanceConflict(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	version := int64(2)
	repo.On("Get", ctx, "tenant1", "s1").
		Return(&session.Session{ID: "s1", Module: session.ModuleAudit, Status: session.StatusUpload, Version: 3}, nil)
	repo.On("Advance", ctx, "tenant1", "s1", session.StatusAnalyzing, 2, mock.Anything, &version).
		Return(nil, repository.ErrConflict)

	svc := session.NewService(repo, nil, nil)
	_, err := svc.Advance(ctx, "tenant1", "s1", session.AdvanceRequest{
		Status:          session.StatusAnalyzing,
		Step:            2,
		ExpectedVersion: &version,
	})
	require.ErrorIs(t, err, session.ErrConflict)
}

func TestSessionService_BackKeepsArtifacts(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	current := &session.Session{
		ID: "s1", Module: session.ModuleConsulting, Status: session.StatusSimulating, CurrentStep: 2,
		Artifacts: map[string]json.RawMessage{session.ArtifactScenarios: json.RawMessage(`{"scenarios":[]}`)},
	}
	repo.On("Get", ctx, "tenant1", "s1").Return(current, nil)
	repo.On("Advance", ctx, "tenant1", "s1", session.StatusDiagnosing, 1, map[string]json.RawMessage(nil), (*int64)(nil)).
		Return(&session.Session{ID: "s1", Module: session.ModuleConsulting, Status: session.StatusDiagnosing, CurrentStep: 1, Artifacts: current.Artifacts}, nil)

	svc := session.NewService(repo, nil, nil)
	sess, err := svc.Back(ctx, "tenant1", "s1")
	require.NoError(t, err)
	require.Equal(t, session.StatusDiagnosing, sess.Status)
	require.NotNil(t, sess.Artifact(session.ArtifactScenarios))
}

func TestSessionService_DeleteMissing(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	repo.On("Delete", ctx, "tenant1", "s1").Return(repository.ErrNotFound)

	svc := session.NewService(repo, nil, nil)
	require.ErrorIs(t, svc.Delete(ctx, "tenant1", "s1"), session.ErrSessionNotFound)
}

func TestSessionService_UpdateInputs(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	current := &session.Session{ID: "s1", Module: session.ModuleAudit, Status: session.StatusSetup, Version: 1}
	repo.On("Get", ctx, "tenant1", "s1").Return(current, nil)
	repo.On("UpdateInputs", ctx, "tenant1", current).Return(nil)

	svc := session.NewService(repo, nil, nil)
	std := "ifrs"
	sess, err := svc.UpdateInputs(ctx, "tenant1", "s1", session.InputsRequest{Standard: &std})
	require.NoError(t, err)
	require.Equal(t, "ifrs", sess.Standard)
	require.Equal(t, int64(2), sess.Version)

	bad := "pci"
	_, err = svc.UpdateInputs(ctx, "tenant1", "s1", session.InputsRequest{Standard: &bad})
	require.ErrorIs(t, err, session.ErrInvalidInput)
}

func TestSessionService_UpdateInputsAuditFields(t *testing.T) {
	ctx := context.Background()
	empty, financial, ifrs := "", "financial", "ifrs"

	cases := map[string]struct {
		module session.Module
		req    session.InputsRequest
	}{
		"empty audit type":          {session.ModuleAudit, session.InputsRequest{AuditType: &empty}},
		"audit type on consulting":  {session.ModuleConsulting, session.InputsRequest{AuditType: &financial}},
		"standard on branding":      {session.ModuleBranding, session.InputsRequest{Standard: &ifrs}},
		"cleared standard on taxes": {session.ModuleTaxLegal, session.InputsRequest{Standard: &empty}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			repo := &mocks.SessionRepository{}
			repo.On("Get", ctx, "tenant1", "s1").Return(&session.Session{ID: "s1", Module: tc.module, Version: 1}, nil)

			svc := session.NewService(repo, nil, nil)
			_, err := svc.UpdateInputs(ctx, "tenant1", "s1", tc.req)
			require.ErrorIs(t, err, session.ErrInvalidInput)
			repo.AssertNotCalled(t, "UpdateInputs", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSessionService_UpdateInputsClearsStandard(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SessionRepository{}
	current := &session.Session{ID: "s1", Module: session.ModuleAudit, AuditType: "financial", Standard: "ifrs", Version: 3}
	repo.On("Get", ctx, "tenant1", "s1").Return(current, nil)
	repo.On("UpdateInputs", ctx, "tenant1", current).Return(nil)

	svc := session.NewService(repo, nil, nil)
	empty := ""
	sess, err := svc.UpdateInputs(ctx, "tenant1", "s1", session.InputsRequest{Standard: &empty})
	require.NoError(t, err)
	require.Empty(t, sess.Standard)
	require.Equal(t, "financial", sess.AuditType)
}
