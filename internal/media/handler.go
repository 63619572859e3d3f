package media

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mototrade-erp/mototrade/internal/platform/httpx"
	"github.com/mototrade-erp/mototrade/internal/rbac"
	"github.com/mototrade-erp/mototrade/internal/shared"
)

// Handler serves attachment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the media handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW}
}

// MountRoutes attaches media routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermVehicleView, shared.PermMediaUpload))
		r.Get("/vehicles/{vehicleID}", h.listByVehicle)
		r.Get("/{id}/url", h.downloadURL)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermMediaUpload))
		r.Post("/vehicles/{vehicleID}", h.upload)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) listByVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := strconv.ParseInt(chi.URLParam(r, "vehicleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid vehicle id")
		return
	}
	attachments, err := h.service.ListByVehicle(r.Context(), vehicleID)
	if err != nil {
		h.logger.Error("list attachments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if attachments == nil {
		attachments = []Attachment{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"attachments": attachments})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := strconv.ParseInt(chi.URLParam(r, "vehicleID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid vehicle id")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "upload too large or malformed")
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

	scan := r.URL.Query().Get("scan") == "true"
	attachment, err := h.service.Upload(r.Context(), vehicleID, header.Filename, file, scan, shared.UserIDFromContext(r.Context()))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, attachment)
}

func (h *Handler) downloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid attachment id")
		return
	}
	url, err := h.service.DownloadURL(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid attachment id")
		return
	}
	if err := h.service.Delete(r.Context(), id, shared.UserIDFromContext(r.Context())); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrUnsupportedType):
		httpx.Problem(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", err.Error())
	case errors.Is(err, ErrTooLarge):
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Too Large", err.Error())
	default:
		h.logger.Error("media", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	}
}
