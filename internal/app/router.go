package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mototrade-erp/mototrade/internal/agents"
	"github.com/mototrade-erp/mototrade/internal/audit"
	"github.com/mototrade-erp/mototrade/internal/auth"
	"github.com/mototrade-erp/mototrade/internal/inventory"
	"github.com/mototrade-erp/mototrade/internal/masterdata"
	"github.com/mototrade-erp/mototrade/internal/media"
	"github.com/mototrade-erp/mototrade/internal/observability"
	"github.com/mototrade-erp/mototrade/internal/ocr"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/reports"
	"github.com/mototrade-erp/mototrade/internal/sales"
	"github.com/mototrade-erp/mototrade/internal/sales/customers"
	"github.com/mototrade-erp/mototrade/internal/shared"
	"github.com/mototrade-erp/mototrade/internal/transfers"
	"github.com/mototrade-erp/mototrade/internal/users"
	"github.com/mototrade-erp/mototrade/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *rbac.PermissionsHandler
	MasterDataHandler  *masterdata.Handler
	InventoryHandler   *inventory.Handler
	TransfersHandler   *transfers.Handler
	CustomersHandler   *customers.Handler
	SalesHandler       *sales.Handler
	AgentsHandler      *agents.Handler
	ReportsHandler     *reports.Handler
	OCRHandler         *ocr.Handler
	MediaHandler       *media.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router serving the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.MasterDataHandler != nil {
		r.Route("/masterdata", params.MasterDataHandler.MountRoutes)
	}
	r.Route("/vehicles", params.InventoryHandler.MountRoutes)
	r.Route("/transfers", params.TransfersHandler.MountRoutes)
	if params.CustomersHandler != nil {
		r.Route("/customers", params.CustomersHandler.MountRoutes)
	}
	r.Route("/sales", params.SalesHandler.MountRoutes)
	r.Route("/agents", params.AgentsHandler.MountRoutes)
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.OCRHandler != nil {
		r.Route("/ocr", params.OCRHandler.MountRoutes)
	}
	if params.MediaHandler != nil {
		r.Route("/media", params.MediaHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
