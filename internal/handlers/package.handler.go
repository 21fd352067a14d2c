package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/andescargo/tracking-gateway/internal/model"
	"github.com/andescargo/tracking-gateway/internal/services"
	xhttp "github.com/andescargo/tracking-gateway/pkg/http"
	"github.com/andescargo/tracking-gateway/pkg/logger"
	"github.com/fasthttp/router"
)

// Authenticator is the auth collaborator boundary: a session, or nil for
// unauthenticated requests.
type Authenticator interface {
	SessionFromRequest(ctx *xhttp.RequestCtx) *model.Session
}

type PackageService interface {
	Create(ctx context.Context, req model.PackageCreateRequest, actor *model.Session) (*model.Package, error)
	UpdateStatus(ctx context.Context, id string, req model.StatusUpdateRequest, actor *model.Session) (*model.Package, error)
	List(ctx context.Context, f model.PackageFilter) ([]*model.Package, model.Pagination, error)
	Track(ctx context.Context, trackingNumber string) (*model.PackageWithHistory, error)
	History(ctx context.Context, id string, actor *model.Session) ([]*model.PackageHistoryEntry, error)
}

type PackageHandler struct {
	svc  PackageService
	auth Authenticator
}

func RegisterPackageRoutes(e *router.Group, h *PackageHandler) {
	e.POST("/packages", h.CreatePackage)
	e.PATCH("/packages/{id}/status", h.UpdateStatus)
	e.GET("/packages", h.ListPackages)
	e.GET("/packages/{id}/history", h.GetHistory)
	e.GET("/track/{trackingNumber}", h.Track)
}

func NewPackageHandler(packageService PackageService, auth Authenticator) *PackageHandler {
	return &PackageHandler{
		svc:  packageService,
		auth: auth,
	}
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type listResponse struct {
	Data       []*model.Package `json:"data"`
	Pagination model.Pagination `json:"pagination"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *PackageHandler) CreatePackage(ctx *xhttp.RequestCtx) {
	var req model.PackageCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	actor := h.auth.SessionFromRequest(ctx)

	created, err := h.svc.Create(ctx, req, actor)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 201, created)
}

func (h *PackageHandler) UpdateStatus(ctx *xhttp.RequestCtx) {
	id, ok := ctx.UserValue("id").(string)
	if !ok || id == "" {
		writeError(ctx, 400, "package id is required")
		return
	}

	var req statusUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	actor := h.auth.SessionFromRequest(ctx)

	updated, err := h.svc.UpdateStatus(ctx, id, model.StatusUpdateRequest{
		Status: req.Status,
		Notes:  req.Notes,
	}, actor)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, updated)
}

func (h *PackageHandler) ListPackages(ctx *xhttp.RequestCtx) {
	var f model.PackageFilter

	if v := query(ctx, "status"); v != "" && v != "all" {
		status := model.PackageStatus(v)
		if !status.Valid() {
			writeError(ctx, 400, "unknown status filter: "+v)
			return
		}
		f.Status = status
	}
	if v := query(ctx, "page"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Page = n
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}

	items, pagination, err := h.svc.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.Package{}
	}
	writeJSON(ctx, 200, listResponse{Data: items, Pagination: pagination})
}

func (h *PackageHandler) GetHistory(ctx *xhttp.RequestCtx) {
	id, ok := ctx.UserValue("id").(string)
	if !ok || id == "" {
		writeError(ctx, 400, "package id is required")
		return
	}

	actor := h.auth.SessionFromRequest(ctx)

	history, err := h.svc.History(ctx, id, actor)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if history == nil {
		history = []*model.PackageHistoryEntry{}
	}
	writeJSON(ctx, 200, history)
}

func (h *PackageHandler) Track(ctx *xhttp.RequestCtx) {
	trackingNumber, ok := ctx.UserValue("trackingNumber").(string)
	if !ok || trackingNumber == "" {
		writeError(ctx, 400, "tracking number is required")
		return
	}

	result, err := h.svc.Track(ctx, trackingNumber)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, result)
}

/* -------------------------------- Helpers ----------------------------------- */

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

// writeServiceError maps the service taxonomy onto HTTP status codes.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(ctx, 400, map[string]any{
			"message": "Validation failed",
			"errors":  vErr.Fields,
		})
	case errors.Is(err, services.ErrUnauthorized):
		writeError(ctx, 401, "authentication required")
	case errors.Is(err, services.ErrForbidden):
		writeError(ctx, 403, "access denied")
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, 404, "package not found")
	default:
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, 500, "internal server error")
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}
