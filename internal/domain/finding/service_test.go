package finding_test

import (
	"context"
	"testing"

	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/repository"
	"github.com/rpggio/atlas/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFindingService_CreateBatch(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FindingRepository{}
	repo.On("CreateBatch", ctx, "tenant1", mock.AnythingOfType("[]finding.Finding")).Return(nil)

	svc := finding.NewService(repo, nil, nil)
	conf := 0.8
	created, err := svc.CreateBatch(ctx, "tenant1", "s1", []finding.Draft{
		{Title: "Duplicate invoices", Severity: finding.SeverityHigh, Confidence: &conf},
		{Title: "Late filings", Severity: finding.SeverityLow},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	for i, f := range created {
		require.Equal(t, finding.StatusOpen, f.Status)
		require.Equal(t, "s1", f.SessionID)
		require.Equal(t, i, f.Position)
	}
}

func TestFindingService_CreateBatchValidation(t *testing.T) {
	ctx := context.Background()
	svc := finding.NewService(&mocks.FindingRepository{}, nil, nil)
	tooSure := 1.5

	_, err := svc.CreateBatch(ctx, "tenant1", "s1", []finding.Draft{{Title: "x", Severity: "critical"}})
	require.ErrorIs(t, err, finding.ErrInvalidInput)
	_, err = svc.CreateBatch(ctx, "tenant1", "s1", []finding.Draft{{Title: "x", Severity: finding.SeverityInfo, Confidence: &tooSure}})
	require.ErrorIs(t, err, finding.ErrInvalidInput)
	_, err = svc.CreateBatch(ctx, "tenant1", "s1", []finding.Draft{{Title: " ", Severity: finding.SeverityInfo}})
	require.ErrorIs(t, err, finding.ErrInvalidInput)
}

func TestFindingService_CreateBatchUnknownSession(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FindingRepository{}
	repo.On("CreateBatch", ctx, "tenant1", mock.Anything).Return(repository.ErrForeignKeyViolation)

	svc := finding.NewService(repo, nil, nil)
	_, err := svc.CreateBatch(ctx, "tenant1", "missing", []finding.Draft{{Title: "x", Severity: finding.SeverityLow}})
	require.ErrorIs(t, err, finding.ErrSessionNotFound)
}

func TestFindingService_ListOrdersBySeverity(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FindingRepository{}
	repo.On("ListBySession", ctx, "tenant1", "s1").Return([]finding.Finding{
		{ID: "a", Severity: finding.SeverityLow, Position: 0},
		{ID: "b", Severity: finding.SeverityHigh, Position: 1},
		{ID: "c", Severity: finding.SeverityInfo, Position: 2},
		{ID: "d", Severity: finding.SeverityHigh, Position: 3},
	}, nil)

	svc := finding.NewService(repo, nil, nil)
	list, err := svc.List(ctx, "tenant1", "s1")
	require.NoError(t, err)

	ids := make([]string, 0, len(list))
	for _, f := range list {
		ids = append(ids, f.ID)
	}
	require.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestFindingService_Acknowledge(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FindingRepository{}
	activities := &mocks.ActivityLogger{}
	repo.On("UpdateStatus", ctx, "tenant1", "f1", finding.StatusAcknowledged).Return(nil)
	repo.On("Get", ctx, "tenant1", "f1").Return(&finding.Finding{
		ID: "f1", SessionID: "s1", Severity: finding.SeverityHigh, Status: finding.StatusAcknowledged,
	}, nil)
	activities.On("LogActivity", ctx, "tenant1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeFindingAcknowledged && *e.SubjectID == "f1"
	})).Return(nil)

	svc := finding.NewService(repo, activities, nil)
	f, err := svc.Acknowledge(ctx, "tenant1", "f1")
	require.NoError(t, err)
	require.Equal(t, finding.StatusAcknowledged, f.Status)
	activities.AssertExpectations(t)
}

func TestFindingService_UpdateStatusMissing(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FindingRepository{}
	repo.On("UpdateStatus", ctx, "tenant1", "f1", finding.StatusOpen).Return(repository.ErrNotFound)

	svc := finding.NewService(repo, nil, nil)
	_, err := svc.UpdateStatus(ctx, "tenant1", "f1", finding.StatusOpen)
	require.ErrorIs(t, err, finding.ErrFindingNotFound)

	_, err = svc.UpdateStatus(ctx, "tenant1", "f1", "closed")
	require.ErrorIs(t, err, finding.ErrInvalidInput)
}

func TestCountBySeverity(t *testing.T) {
	counts := finding.CountBySeverity([]finding.Finding{
		{Severity: finding.SeverityHigh}, {Severity: finding.SeverityMedium}, {Severity: finding.SeverityHigh},
	})
	require.Equal(t, 2, counts[finding.SeverityHigh])
	require.Equal(t, 1, counts[finding.SeverityMedium])
	require.Zero(t, counts[finding.SeverityLow])
}

func TestFindingService_ReplaceForSession(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FindingRepository{}
	repo.On("ReplaceBySession", ctx, "tenant1", "s1", mock.MatchedBy(func(list []finding.Finding) bool {
		return len(list) == 1 && list[0].SessionID == "s1" && list[0].Status == finding.StatusOpen
	})).Return(nil)

	svc := finding.NewService(repo, nil, nil)
	got, err := svc.ReplaceForSession(ctx, "tenant1", "s1", []finding.Draft{
		{Title: "Unreconciled account", Severity: finding.SeverityMedium},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	repo.AssertExpectations(t)
}

func TestFindingService_ReplaceForSessionRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FindingRepository{}
	svc := finding.NewService(repo, nil, nil)

	_, err := svc.ReplaceForSession(ctx, "tenant1", "s1", []finding.Draft{{Title: "x", Severity: "critical"}})
	require.ErrorIs(t, err, finding.ErrInvalidInput)
	repo.AssertNotCalled(t, "ReplaceBySession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	repo.On("ReplaceBySession", ctx, "tenant1", "gone", mock.Anything).Return(repository.ErrForeignKeyViolation)
	_, err = svc.ReplaceForSession(ctx, "tenant1", "gone", nil)
	require.ErrorIs(t, err, finding.ErrSessionNotFound)
}
