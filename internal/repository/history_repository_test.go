package repository

import (
	"context"
	"testing"
	"time"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	packageRepo := NewPackageRepository(db)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	pkg, err := packageRepo.Create(ctx, newTestPackage("PKG-HIST0001"))
	require.NoError(t, err)

	t.Run("assigns id", func(t *testing.T) {
		changedBy := "user-1"
		entry, err := repo.Create(ctx, &model.PackageHistoryEntry{
			PackageID: pkg.ID,
			Status:    model.StatusPending,
			Notes:     "Package created",
			ChangedBy: &changedBy,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, pkg.ID, entry.PackageID)
	})
}

func TestHistoryRepository_ListByPackage(t *testing.T) {
	db := setupTestDB(t).DB
	packageRepo := NewPackageRepository(db)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	pkg, err := packageRepo.Create(ctx, newTestPackage("PKG-HIST0002"))
	require.NoError(t, err)
	other, err := packageRepo.Create(ctx, newTestPackage("PKG-HIST0003"))
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	timeline := []model.PackageStatus{model.StatusPending, model.StatusInTransit, model.StatusDelivered}
	for i, status := range timeline {
		_, err := repo.Create(ctx, &model.PackageHistoryEntry{
			PackageID: pkg.ID,
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err = repo.Create(ctx, &model.PackageHistoryEntry{
		PackageID: other.ID,
		Status:    model.StatusPending,
	})
	require.NoError(t, err)

	t.Run("returns timeline oldest first", func(t *testing.T) {
		entries, err := repo.ListByPackage(ctx, pkg.ID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, model.StatusPending, entries[0].Status)
		assert.Equal(t, model.StatusInTransit, entries[1].Status)
		assert.Equal(t, model.StatusDelivered, entries[2].Status)
	})

	t.Run("empty for unknown package", func(t *testing.T) {
		entries, err := repo.ListByPackage(ctx, "missing-id")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("count per package", func(t *testing.T) {
		n, err := repo.CountByPackage(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = repo.CountByPackage(ctx, other.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
