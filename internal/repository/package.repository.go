package repository

import (
	"context"
	"errors"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a package does not exist.
	ErrNotFound = errors.New("package not found")
)

type PackageRepository struct {
	*pg.DB
}

func NewPackageRepository(db *pg.DB) *PackageRepository {
	return &PackageRepository{
		db,
	}
}

func (r *PackageRepository) Create(ctx context.Context, p *model.Package) (*model.Package, error) {
	entity := toPackageEntity(p)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toPackageModel(entity), nil
}

func (r *PackageRepository) GetByID(ctx context.Context, id string) (*model.Package, error) {
	var entity PackageEntity
	err := r.Read(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toPackageModel(&entity), nil
}

func (r *PackageRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Package, error) {
	var entity PackageEntity
	err := r.Read(ctx).WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toPackageModel(&entity), nil
}

// UpdateStatus sets the status column and returns the refreshed record.
// Callers that need the update and the history append to be atomic wrap
// this in WithinTransaction.
func (r *PackageRepository) UpdateStatus(ctx context.Context, id string, status model.PackageStatus) (*model.Package, error) {
	res := r.Write(ctx).WithContext(ctx).
		Model(&PackageEntity{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var entity PackageEntity
	if err := r.Write(ctx).WithContext(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, err
	}
	return toPackageModel(&entity), nil
}

func (r *PackageRepository) List(ctx context.Context, f model.PackageFilter) ([]*model.Package, int64, error) {
	f = f.Normalize()

	q := r.Read(ctx).WithContext(ctx).Model(&PackageEntity{})
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	// Count before pagination; a dedicated count query, never a full fetch.
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit

	var entities []*PackageEntity
	if err := q.Order("created_at DESC").Limit(f.Limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toPackageModels(entities), total, nil
}
