package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/mototrade-erp/mototrade/internal/platform/httpx"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Handler serves vehicle inventory endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validate: validator.New()}
}

// MountRoutes attaches vehicle routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermVehicleView, shared.PermVehicleEdit))
		r.Get("/", h.list)
		r.Get("/lookup", h.lookup)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermVehicleCreate))
		r.Post("/", h.register)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermVehicleEdit))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermVehicleDelete))
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Search: q.Get("search"),
		Status: Status(q.Get("status")),
		Page:   1,
		Limit:  50,
	}
	if id, err := strconv.ParseInt(q.Get("warehouse_id"), 10, 64); err == nil {
		filter.WarehouseID = id
	}
	if id, err := strconv.ParseInt(q.Get("model_id"), 10, 64); err == nil {
		filter.ModelID = id
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 200 {
		filter.Limit = l
	}

	vehicles, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list vehicles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"vehicles":   vehicles,
		"pagination": shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	serial := r.URL.Query().Get("serial")
	vehicle, err := h.service.Lookup(r.Context(), serial)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid vehicle id")
		return
	}
	vehicle, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	req.ActorID = shared.UserIDFromContext(r.Context())

	vehicle, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, vehicle)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid vehicle id")
		return
	}
	var req UpdateInput
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	vehicle, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vehicle)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid vehicle id")
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.UserIDFromContext(r.Context())); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicateIdentity):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrVehicleSold), errors.Is(err, ErrVehicleReferenced):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidIdentity):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("inventory", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	}
}
