package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Get(ctx context.Context, period model.Period, actor *model.Session) (*model.Stats, error) {
	args := m.Called(ctx, period, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}

func TestStatsHandler_GetStats(t *testing.T) {
	admin := &model.Session{UserID: "admin-1", Role: model.RoleAdmin}

	t.Run("returns aggregates", func(t *testing.T) {
		svc := new(MockStatsService)
		handler := NewStatsHandler(svc, &stubAuth{session: admin})

		svc.On("Get", mock.Anything, model.PeriodWeek, admin).Return(&model.Stats{
			TotalPackages:     12,
			DeliveredPackages: 6,
			TotalRevenue:      540,
			PaidRevenue:       300,
			DeliveryRate:      50,
		}, nil)

		ctx := setupTestContext("GET", "/api/v1/stats?period=week", nil)
		handler.GetStats(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())

		var response model.Stats
		err := json.Unmarshal(ctx.Response.Body(), &response)
		require.NoError(t, err)
		assert.Equal(t, int64(12), response.TotalPackages)
		assert.Equal(t, float64(50), response.DeliveryRate)

		svc.AssertExpectations(t)
	})

	t.Run("defaults to all time", func(t *testing.T) {
		svc := new(MockStatsService)
		handler := NewStatsHandler(svc, &stubAuth{session: admin})

		svc.On("Get", mock.Anything, model.PeriodAll, admin).Return(&model.Stats{}, nil)

		ctx := setupTestContext("GET", "/api/v1/stats", nil)
		handler.GetStats(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		svc.AssertExpectations(t)
	})

	t.Run("empty window keeps zero values in the body", func(t *testing.T) {
		svc := new(MockStatsService)
		handler := NewStatsHandler(svc, &stubAuth{session: admin})

		svc.On("Get", mock.Anything, model.PeriodDay, admin).Return(&model.Stats{}, nil)

		ctx := setupTestContext("GET", "/api/v1/stats?period=day", nil)
		handler.GetStats(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		body := string(ctx.Response.Body())
		assert.Contains(t, body, `"totalPackages":0`)
		assert.Contains(t, body, `"deliveryRate":0`)
	})

	t.Run("unknown period", func(t *testing.T) {
		svc := new(MockStatsService)
		handler := NewStatsHandler(svc, &stubAuth{session: admin})

		ctx := setupTestContext("GET", "/api/v1/stats?period=decade", nil)
		handler.GetStats(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("forbidden for non-admin", func(t *testing.T) {
		svc := new(MockStatsService)
		user := &model.Session{UserID: "user-1", Role: "user"}
		handler := NewStatsHandler(svc, &stubAuth{session: user})

		svc.On("Get", mock.Anything, model.PeriodAll, user).Return(nil, services.ErrForbidden)

		ctx := setupTestContext("GET", "/api/v1/stats", nil)
		handler.GetStats(ctx)

		assert.Equal(t, 403, ctx.Response.StatusCode())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		svc := new(MockStatsService)
		handler := NewStatsHandler(svc, &stubAuth{})

		svc.On("Get", mock.Anything, model.PeriodAll, (*model.Session)(nil)).
			Return(nil, services.ErrUnauthorized)

		ctx := setupTestContext("GET", "/api/v1/stats", nil)
		handler.GetStats(ctx)

		assert.Equal(t, 401, ctx.Response.StatusCode())
	})
}
