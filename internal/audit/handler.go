package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mototrade-erp/mototrade/internal/platform/httpx"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Handler serves the audit timeline.
type Handler struct {
	logger *slog.Logger
	repo   Repository
	rbac   rbac.Middleware
}

// NewHandler constructs the audit handler.
func NewHandler(logger *slog.Logger, repo Repository, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, rbac: rbacMW}
}

// MountRoutes attaches audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermAuditView))
		r.Get("/", h.list)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		Page:     1,
		Limit:    50,
	}
	if id, err := strconv.ParseInt(q.Get("actor_id"), 10, 64); err == nil {
		filter.ActorID = id
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = t.AddDate(0, 0, 1)
		}
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 200 {
		filter.Limit = l
	}

	events, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list audit events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if events == nil {
		events = []Event{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"events":     events,
		"pagination": shared.NewPagination(filter.Page, filter.Limit, total),
	})
}
