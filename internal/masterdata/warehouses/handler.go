package warehouses

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	mdshared "github.com/mototrade-erp/mototrade/internal/masterdata/shared"
	"github.com/mototrade-erp/mototrade/internal/platform/httpx"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Handler serves warehouse CRUD endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the warehouses handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes attaches warehouse routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermWarehouseView, shared.PermWarehouseManage))
		r.Get("/warehouses", h.list)
		r.Get("/warehouses/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermWarehouseManage))
		r.Post("/warehouses", h.create)
		r.Put("/warehouses/{id}", h.update)
		r.Delete("/warehouses/{id}", h.delete)
	})
}

type warehouseRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	OwnerAgentID *int64 `json:"owner_agent_id,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filters := mdshared.ListFilters{
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sort_by"),
		SortDir: r.URL.Query().Get("sort_dir"),
		Page:    1,
		Limit:   50,
	}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filters.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 200 {
		filters.Limit = l
	}

	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list warehouses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"warehouses": items,
		"pagination": shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse id")
		return
	}
	warehouse, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, warehouse)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req warehouseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	warehouse, err := h.service.Create(r.Context(), Warehouse{
		Code:         req.Code,
		Name:         req.Name,
		Address:      req.Address,
		OwnerAgentID: req.OwnerAgentID,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, warehouse)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse id")
		return
	}
	var req warehouseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), id, Warehouse{
		Code:         req.Code,
		Name:         req.Name,
		Address:      req.Address,
		OwnerAgentID: req.OwnerAgentID,
	}); err != nil {
		h.respondServiceError(w, err)
		return
	}
	warehouse, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, warehouse)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse id")
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
	case errors.Is(err, ErrCodeTaken):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "warehouse code already in use")
	case errors.Is(err, ErrInUse):
		httpx.Problem(w, http.StatusConflict, "Conflict", "warehouse is referenced and cannot be deleted")
	default:
		h.logger.Error("warehouses", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	}
}
