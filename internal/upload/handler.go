package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/go-chi/chi"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(baseHandler *transport.BaseHandler, service *Service) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ServeFile streams GET /uploads/{filename}.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	body, err := h.Service.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.HandleServiceError(w, internal.ErrFileNotFound)
			return
		}
		h.Logger.Error("ServeFile: failed to open upload", "name", name, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.Logger.Warn("ServeFile: copy interrupted", "name", name, "error", err)
	}
}
