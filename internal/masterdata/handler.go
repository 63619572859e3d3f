package masterdata

import (
	"github.com/go-chi/chi/v5"

	"github.com/mototrade-erp/mototrade/internal/masterdata/models"
	"github.com/mototrade-erp/mototrade/internal/masterdata/warehouses"
)

// Handler aggregates the masterdata submodule handlers.
type Handler struct {
	Warehouses *warehouses.Handler
	Models     *models.Handler
}

// MountRoutes attaches all masterdata routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.Warehouses != nil {
		h.Warehouses.MountRoutes(r)
	}
	if h.Models != nil {
		h.Models.MountRoutes(r)
	}
}
