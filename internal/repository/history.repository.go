package repository

import (
	"context"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/pkg/pg"
)

type HistoryRepository struct {
	*pg.DB
}

func NewHistoryRepository(db *pg.DB) *HistoryRepository {
	return &HistoryRepository{
		db,
	}
}

// Create appends one entry. History rows are never updated or deleted
// directly; they only disappear when their parent package cascades.
func (r *HistoryRepository) Create(ctx context.Context, h *model.PackageHistoryEntry) (*model.PackageHistoryEntry, error) {
	entity := toHistoryEntity(h)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toHistoryModel(entity), nil
}

// ListByPackage returns the timeline oldest first, the order a shipment's
// journey is reconstructed in.
func (r *HistoryRepository) ListByPackage(ctx context.Context, packageID string) ([]*model.PackageHistoryEntry, error) {
	var entities []*PackageHistoryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("package_id = ?", packageID).
		Order("created_at ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toHistoryModels(entities), nil
}

func (r *HistoryRepository) CountByPackage(ctx context.Context, packageID string) (int64, error) {
	var total int64
	err := r.Read(ctx).WithContext(ctx).
		Model(&PackageHistoryEntity{}).
		Where("package_id = ?", packageID).
		Count(&total).Error
	return total, err
}
