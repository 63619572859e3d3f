package agents

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mototrade-erp/mototrade/internal/platform/httpx"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Handler serves agent and ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs the agents handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validate: validator.New()}
}

// MountRoutes attaches agent routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermAgentView, shared.PermAgentManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermAgentManage))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLedgerView, shared.PermLedgerPost))
		r.Get("/{id}/statement", h.statement)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermLedgerPost))
		r.Post("/{id}/payments", h.postPayment)
		r.Post("/{id}/adjustments", h.postAdjustment)
		r.Post("/{id}/sales", h.createSale)
	})
}

type agentRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Phone          string          `json:"phone" validate:"max=50"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	IsActive       *bool           `json:"is_active,omitempty"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Search: r.URL.Query().Get("search"), Page: 1, Limit: 50}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		filter.IsActive = &active
	}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 200 {
		filter.Limit = l
	}

	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list agents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"agents":     items,
		"pagination": shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid agent id")
		return
	}
	agent, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, agent)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	agent, err := h.service.Create(r.Context(), Agent{
		Name:           req.Name,
		Phone:          req.Phone,
		CommissionRate: req.CommissionRate,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, agent)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid agent id")
		return
	}
	var req agentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	if err := h.service.Update(r.Context(), id, Agent{
		Name:           req.Name,
		Phone:          req.Phone,
		CommissionRate: req.CommissionRate,
		IsActive:       isActive,
	}); err != nil {
		h.respondServiceError(w, err)
		return
	}
	agent, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, agent)
}

func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid agent id")
		return
	}
	filter := StatementFilter{AgentID: id, Page: 1, Limit: 50}
	if from := r.URL.Query().Get("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = t
		}
	}
	if to := r.URL.Query().Get("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = t.AddDate(0, 0, 1)
		}
	}
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 200 {
		filter.Limit = l
	}

	entries, total, err := h.service.Statement(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    entries,
		"pagination": shared.NewPagination(filter.Page, filter.Limit, total),
	})
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" validate:"max=500"`
}

func (h *Handler) postPayment(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid agent id")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.PostPayment(r.Context(), id, req.Amount, req.Note, shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type adjustmentRequest struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Reason string          `json:"reason" validate:"required,max=500"`
}

func (h *Handler) postAdjustment(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid agent id")
		return
	}
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	entry, err := h.service.PostAdjustment(r.Context(), id, req.Debit, req.Credit, req.Reason, shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

type agentSaleRequest struct {
	VehicleID          int64            `json:"vehicle_id" validate:"required,gt=0"`
	CustomerID         int64            `json:"customer_id" validate:"required,gt=0"`
	Price              decimal.Decimal  `json:"price"`
	CommissionOverride *decimal.Decimal `json:"commission_override,omitempty"`
	SoldAt             *time.Time       `json:"sold_at,omitempty"`
	Note               string           `json:"note" validate:"max=500"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid agent id")
		return
	}
	var req agentSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := AgentSaleInput{
		AgentID:            id,
		VehicleID:          req.VehicleID,
		CustomerID:         req.CustomerID,
		SalePrice:          req.Price,
		CommissionOverride: req.CommissionOverride,
		Note:               req.Note,
		ActorID:            shared.UserIDFromContext(r.Context()),
		IdempotencyKey:     r.Header.Get("Idempotency-Key"),
	}
	if req.SoldAt != nil {
		input.SoldAt = *req.SoldAt
	}
	saleID, entries, err := h.service.CreateAgentSale(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{
		"sale_id": saleID,
		"entries": entries,
	})
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "request already processed")
	case errors.Is(err, ErrVehicleNotConsigned), errors.Is(err, ErrAgentInactive):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidAmount):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("agents", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	}
}
