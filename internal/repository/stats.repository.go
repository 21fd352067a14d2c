package repository

import (
	"context"
	"time"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/pkg/pg"
	"gorm.io/gorm"
)

type StatsRepository struct {
	*pg.DB
}

func NewStatsRepository(db *pg.DB) *StatsRepository {
	return &StatsRepository{
		db,
	}
}

// Aggregate computes the dashboard counters over packages created at or
// after since (unbounded when since is nil). DeliveryRate is left for the
// service to derive.
func (r *StatsRepository) Aggregate(ctx context.Context, since *time.Time) (*model.Stats, error) {
	base := func() *gorm.DB {
		q := r.Read(ctx).WithContext(ctx).Model(&PackageEntity{})
		if since != nil {
			q = q.Where("created_at >= ?", *since)
		}
		return q
	}

	stats := &model.Stats{}

	if err := base().Count(&stats.TotalPackages).Error; err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := base().Select("status, COUNT(*) AS count").Group("status").Find(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		switch model.PackageStatus(row.Status) {
		case model.StatusPending:
			stats.PendingPackages = row.Count
		case model.StatusInTransit:
			stats.InTransitPackages = row.Count
		case model.StatusDelivered:
			stats.DeliveredPackages = row.Count
		}
	}

	var revenue struct {
		Total float64
		Paid  float64
	}
	err := base().
		Select("COALESCE(SUM(total_cost), 0) AS total, COALESCE(SUM(CASE WHEN is_paid THEN total_cost ELSE 0 END), 0) AS paid").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue = revenue.Total
	stats.PaidRevenue = revenue.Paid

	return stats, nil
}
