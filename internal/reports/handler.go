package reports

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

// Handler serves report endpoints. Every report supports ?format=csv.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes attaches report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermReportView))
		r.Get("/sales", h.salesSummary)
		r.Get("/valuation", h.inventoryValuation)
		r.Get("/agent-balances", h.agentBalances)
	})
}

func (h *Handler) salesSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := SalesSummaryFilter{Granularity: Granularity(q.Get("granularity"))}
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
	if id, err := strconv.ParseInt(q.Get("warehouse_id"), 10, 64); err == nil {
		filter.WarehouseID = id
	}

	if q.Get("format") == "csv" {
		data, err := h.service.SalesSummaryCSV(r.Context(), filter)
		if err != nil {
			h.fail(w, "sales summary csv", err)
			return
		}
		h.csv(w, "sales-summary.csv", data)
		return
	}
	data, err := h.service.SalesSummary(r.Context(), filter)
	if err != nil {
		h.fail(w, "sales summary", err)
		return
	}
	h.json(w, data)
}

func (h *Handler) inventoryValuation(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "csv" {
		data, err := h.service.InventoryValuationCSV(r.Context())
		if err != nil {
			h.fail(w, "valuation csv", err)
			return
		}
		h.csv(w, "inventory-valuation.csv", data)
		return
	}
	data, err := h.service.InventoryValuation(r.Context())
	if err != nil {
		h.fail(w, "valuation", err)
		return
	}
	h.json(w, data)
}

func (h *Handler) agentBalances(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "csv" {
		data, err := h.service.AgentBalancesCSV(r.Context())
		if err != nil {
			h.fail(w, "agent balances csv", err)
			return
		}
		h.csv(w, "agent-balances.csv", data)
		return
	}
	data, err := h.service.AgentBalances(r.Context())
	if err != nil {
		h.fail(w, "agent balances", err)
		return
	}
	h.json(w, data)
}

func (h *Handler) json(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) csv(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "report could not be produced")
}
