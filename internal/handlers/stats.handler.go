package handlers

import (
	"context"

	"github.com/andescargo/tracking-gateway/internal/model"
	xhttp "github.com/andescargo/tracking-gateway/pkg/http"
	"github.com/fasthttp/router"
)

type StatsService interface {
	Get(ctx context.Context, period model.Period, actor *model.Session) (*model.Stats, error)
}

type StatsHandler struct {
	svc  StatsService
	auth Authenticator
}

func RegisterStatsRoutes(e *router.Group, h *StatsHandler) {
	e.GET("/stats", h.GetStats)
}

func NewStatsHandler(statsService StatsService, auth Authenticator) *StatsHandler {
	return &StatsHandler{
		svc:  statsService,
		auth: auth,
	}
}

func (h *StatsHandler) GetStats(ctx *xhttp.RequestCtx) {
	period, err := model.ParsePeriod(query(ctx, "period"))
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	actor := h.auth.SessionFromRequest(ctx)

	stats, err := h.svc.Get(ctx, period, actor)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, stats)
}
