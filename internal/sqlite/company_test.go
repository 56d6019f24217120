package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestCompanyRepository_CreateGetUpdate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewCompanyRepository(db)

	now := time.Now()
	c := &company.Company{
		ID:            "c1",
		Name:          "Acme",
		Industry:      "retail",
		Size:          company.SizeSmall,
		AnnualRevenue: floatPtr(1.5e6),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.Create(ctx, "tenant1", c))

	loaded, err := repo.GetByTenant(ctx, "tenant1")
	require.NoError(t, err)
	require.Equal(t, "Acme", loaded.Name)
	require.Equal(t, company.SizeSmall, loaded.Size)
	require.NotNil(t, loaded.AnnualRevenue)
	require.InDelta(t, 1.5e6, *loaded.AnnualRevenue, 0.001)

	loaded.Country = "PT"
	loaded.AnnualRevenue = nil
	require.NoError(t, repo.Update(ctx, "tenant1", loaded))

	again, err := repo.GetByTenant(ctx, "tenant1")
	require.NoError(t, err)
	require.Equal(t, "PT", again.Country)
	require.Nil(t, again.AnnualRevenue)
}

func TestCompanyRepository_OnePerTenant(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewCompanyRepository(db)
	now := time.Now()

	require.NoError(t, repo.Create(ctx, "tenant1", &company.Company{ID: "c1", Name: "A", CreatedAt: now, UpdatedAt: now}))
	err := repo.Create(ctx, "tenant1", &company.Company{ID: "c2", Name: "B", CreatedAt: now, UpdatedAt: now})
	require.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = repo.GetByTenant(ctx, "tenant2")
	require.ErrorIs(t, err, repository.ErrNotFound)

	err = repo.Update(ctx, "tenant2", &company.Company{ID: "c1", Name: "Hijack"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}
