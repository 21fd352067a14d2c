package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andescargo/tracking-gateway/internal/events"
	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/internal/repository"
	"github.com/andescargo/tracking-gateway/pkg/logger"
	"github.com/andescargo/tracking-gateway/pkg/prom"
	"github.com/google/uuid"
)

const trackingNumberPrefix = "PKG-"
const trackingCacheKeyPrefix = "tracking:"

type PackageRepository interface {
	Create(ctx context.Context, p *model.Package) (*model.Package, error)
	GetByID(ctx context.Context, id string) (*model.Package, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Package, error)
	UpdateStatus(ctx context.Context, id string, status model.PackageStatus) (*model.Package, error)
	List(ctx context.Context, f model.PackageFilter) ([]*model.Package, int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type HistoryRepository interface {
	Create(ctx context.Context, h *model.PackageHistoryEntry) (*model.PackageHistoryEntry, error)
	ListByPackage(ctx context.Context, packageID string) ([]*model.PackageHistoryEntry, error)
}

// EventPublisher fans status changes out to interested consumers. Event
// delivery is best-effort and never fails the write path.
type EventPublisher interface {
	PublishJSON(ctx context.Context, v interface{}) (string, error)
}

// TrackingCache fronts the public tracking lookup.
type TrackingCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Del(key string) error
}

type PackageService struct {
	packageRepo PackageRepository
	historyRepo HistoryRepository
	events      EventPublisher
	cache       TrackingCache
	cacheTTL    time.Duration
}

func NewPackageService(packageRepo PackageRepository, historyRepo HistoryRepository, events EventPublisher, cache TrackingCache, cacheTTL time.Duration) *PackageService {
	return &PackageService{
		packageRepo: packageRepo,
		historyRepo: historyRepo,
		events:      events,
		cache:       cache,
		cacheTTL:    cacheTTL,
	}
}

// Create validates the payload, inserts the package with status pending
// and appends the initial history entry, both inside one transaction.
func (s *PackageService) Create(ctx context.Context, req model.PackageCreateRequest, actor *model.Session) (*model.Package, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if errs := req.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	p := req.Package(actor.UserID)
	p.TrackingNumber = generateTrackingNumber()

	var created *model.Package
	err := s.packageRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.packageRepo.Create(ctx, p)
		if err != nil {
			return fmt.Errorf("create package: %w", err)
		}

		changedBy := actor.UserID
		_, err = s.historyRepo.Create(ctx, &model.PackageHistoryEntry{
			PackageID: created.ID,
			Status:    model.StatusPending,
			Notes:     "Package created",
			ChangedBy: &changedBy,
		})
		if err != nil {
			return fmt.Errorf("create history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prom.IncPackagesCreated()
	s.publishEvent(ctx, events.TypePackageCreated, created, actor.UserID, "")

	return created, nil
}

// UpdateStatus applies a status transition for the creator or an admin.
// The status update and the history append commit together or not at all.
// Any status may follow any other; no transition graph is enforced.
func (s *PackageService) UpdateStatus(ctx context.Context, id string, req model.StatusUpdateRequest, actor *model.Session) (*model.Package, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if errs := req.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	existing, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if existing.CreatedBy != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	status := model.PackageStatus(req.Status)
	notes := strings.TrimSpace(req.Notes)
	if notes == "" {
		notes = fmt.Sprintf("Status updated to %s", status)
	}

	var updated *model.Package
	err = s.packageRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.packageRepo.UpdateStatus(ctx, id, status)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		changedBy := actor.UserID
		_, err = s.historyRepo.Create(ctx, &model.PackageHistoryEntry{
			PackageID: updated.ID,
			Status:    status,
			Notes:     notes,
			ChangedBy: &changedBy,
		})
		if err != nil {
			return fmt.Errorf("create history entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateTracking(updated.TrackingNumber)
	prom.IncStatusTransition(string(status))
	s.publishEvent(ctx, events.TypeStatusChanged, updated, actor.UserID, notes)

	return updated, nil
}

func (s *PackageService) List(ctx context.Context, f model.PackageFilter) ([]*model.Package, model.Pagination, error) {
	f = f.Normalize()
	items, total, err := s.packageRepo.List(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return items, model.NewPagination(f.Page, f.Limit, total), nil
}

// Track is the public lookup by tracking number: the package plus its
// full timeline. Results sit behind a short-TTL cache.
func (s *PackageService) Track(ctx context.Context, trackingNumber string) (*model.PackageWithHistory, error) {
	cacheKey := trackingCacheKeyPrefix + trackingNumber

	if s.cache != nil {
		if raw, err := s.cache.Get(cacheKey); err == nil {
			var cached model.PackageWithHistory
			if err := json.Unmarshal(raw, &cached); err == nil {
				prom.IncTrackingLookup("hit")
				return &cached, nil
			}
		}
	}

	p, err := s.packageRepo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	history, err := s.historyRepo.ListByPackage(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	result := &model.PackageWithHistory{Package: p, History: history}
	prom.IncTrackingLookup("miss")

	if s.cache != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(cacheKey, raw, s.cacheTTL); err != nil {
				logger.Warn("tracking cache set failed", "key", cacheKey, "error", err)
			}
		}
	}
	return result, nil
}

// History returns a shipment's timeline for its creator or an admin.
func (s *PackageService) History(ctx context.Context, id string, actor *model.Session) ([]*model.PackageHistoryEntry, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}

	p, err := s.packageRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if p.CreatedBy != actor.UserID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	return s.historyRepo.ListByPackage(ctx, p.ID)
}

func (s *PackageService) publishEvent(ctx context.Context, eventType string, p *model.Package, changedBy, notes string) {
	if s.events == nil {
		return
	}
	_, err := s.events.PublishJSON(ctx, events.PackageEvent{
		Type:           eventType,
		PackageID:      p.ID,
		TrackingNumber: p.TrackingNumber,
		Status:         string(p.Status),
		ChangedBy:      changedBy,
		Notes:          notes,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		logger.Warn("event publish failed", "type", eventType, "package_id", p.ID, "error", err)
	}
}

func (s *PackageService) invalidateTracking(trackingNumber string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(trackingCacheKeyPrefix + trackingNumber); err != nil {
		logger.Warn("tracking cache invalidation failed", "tracking_number", trackingNumber, "error", err)
	}
}

// generateTrackingNumber derives the human-facing code from a random
// UUID: the prefix plus its first eight hex characters, uppercased.
// Uniqueness is ultimately enforced by the tracking_number constraint.
func generateTrackingNumber() string {
	return trackingNumberPrefix + strings.ToUpper(uuid.NewString()[:8])
}
