package services

import (
	"context"
	"time"

	"github.com/andescargo/tracking-gateway/internal/model"
)

type StatsRepository interface {
	Aggregate(ctx context.Context, since *time.Time) (*model.Stats, error)
}

// StatsService resolves a period filter and derives the delivery rate on
// top of the repository aggregates. Stats are admin-only.
type StatsService struct {
	statsRepo StatsRepository
	now       func() time.Time
}

func NewStatsService(statsRepo StatsRepository) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
		now:       time.Now,
	}
}

func (s *StatsService) Get(ctx context.Context, period model.Period, actor *model.Session) (*model.Stats, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	var since *time.Time
	if t, ok := period.LowerBound(s.now()); ok {
		since = &t
	}

	stats, err := s.statsRepo.Aggregate(ctx, since)
	if err != nil {
		return nil, err
	}

	stats.DeliveryRate = model.ComputeDeliveryRate(stats.DeliveredPackages, stats.TotalPackages)
	return stats, nil
}
