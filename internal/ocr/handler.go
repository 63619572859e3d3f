package ocr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mototrade-erp/mototrade/internal/platform/httpx"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

const maxDocumentSize = 10 << 20 // 10 MiB

// Handler serves the document intake endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the OCR handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes attaches OCR routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermOCRUse))
		r.Post("/scan", h.scan)
	})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "document upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	result, err := h.service.Scan(r.Context(), header.Filename, file)
	if err != nil {
		if errors.Is(err, ErrNoSerialsFound) {
			httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":      err.Error(),
				"extraction": result.Extraction,
			})
			return
		}
		h.logger.Error("ocr scan", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Upstream Error", "document recognition failed")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
