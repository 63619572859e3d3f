package models

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	mdshared "github.com/mototrade-erp/mototrade/internal/masterdata/shared"
	"github.com/mototrade-erp/mototrade/internal/platform/httpx"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Handler serves vehicle model catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermModelView, shared.PermModelManage))
		r.Get("/models", h.list)
		r.Get("/models/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermModelManage))
		r.Post("/models", h.create)
		r.Put("/models/{id}", h.update)
		r.Delete("/models/{id}", h.delete)
	})
}

type modelRequest struct {
	Brand      string          `json:"brand"`
	Name       string          `json:"name"`
	Year       int             `json:"year"`
	CapacityCC int             `json:"capacity_cc"`
	ListPrice  decimal.Decimal `json:"list_price"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := mdshared.ListFilters{Search: r.URL.Query().Get("search"), Page: 1, Limit: 50}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filters.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 200 {
		filters.Limit = l
	}
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list models", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"models":     items,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid model id")
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	m, err := h.service.Create(r.Context(), VehicleModel{
		Brand:      req.Brand,
		Name:       req.Name,
		Year:       req.Year,
		CapacityCC: req.CapacityCC,
		ListPrice:  req.ListPrice,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid model id")
		return
	}
	var req modelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), id, VehicleModel{
		Brand:      req.Brand,
		Name:       req.Name,
		Year:       req.Year,
		CapacityCC: req.CapacityCC,
		ListPrice:  req.ListPrice,
	}); err != nil {
		h.respondServiceError(w, err)
		return
	}
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid model id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicateModel):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "model already registered")
	default:
		h.logger.Error("models", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	}
}
