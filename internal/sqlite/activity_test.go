package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.ActivityEntry{
		SessionID:    stringPtr("s1"),
		ActivityType: activity.TypeSessionCreated,
		Summary:      "started audit session",
	}
	entry2 := &activity.ActivityEntry{
		SessionID:    stringPtr("s1"),
		ActivityType: activity.TypeAnalysisCompleted,
		Summary:      "2 findings",
		Details:      `{"findings":2}`,
	}

	require.NoError(t, repo.Log(ctx, "tenant1", entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, "tenant1", entry2))
	require.NotZero(t, entry2.ID)

	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{SessionID: stringPtr("s1")})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Equal(t, `{"findings":2}`, entries[0].Details)
}

func TestActivityRepository_FiltersAndTenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		SubjectID:    stringPtr("f1"),
		ActivityType: activity.TypeFindingAcknowledged,
		Summary:      "acknowledged",
	}))
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		ActivityType: activity.TypeDatasetUploaded,
		Summary:      "uploaded",
	}))

	ack := activity.TypeFindingAcknowledged
	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{ActivityType: &ack})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "f1", *entries[0].SubjectID)
	require.Nil(t, entries[0].SessionID)

	entries, err = repo.List(ctx, "tenant1", activity.ListActivityOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.List(ctx, "tenant2", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestActivityRepository_OffsetWithoutLimit(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	base := time.Now().Add(-time.Hour)
	for i, typ := range []activity.ActivityType{
		activity.TypeSessionCreated,
		activity.TypeSessionAdvanced,
		activity.TypeReportExported,
	} {
		require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
			ActivityType: typ,
			Summary:      string(typ),
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, activity.TypeSessionAdvanced, entries[0].ActivityType)
	require.Empty(t, entries[0].Details)
}
