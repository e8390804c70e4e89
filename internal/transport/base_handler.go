package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/pkg/logger"
	"github.com/go-chi/chi"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger   *slog.Logger
	Messages *i18n.Catalog
}

// NewBaseHandler creates a base handler with logger and message catalog
func NewBaseHandler(lg *slog.Logger, messages *i18n.Catalog) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	if messages == nil {
		messages = i18n.Default()
	}
	return &BaseHandler{Logger: lg, Messages: messages}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of mutations that return no resource.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an already localized error message
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteMessage writes {"message": ...} using the catalog entry for key
func (h *BaseHandler) WriteMessage(w http.ResponseWriter, status int, key string) {
	h.WriteJSON(w, status, MessageResponse{Message: h.Message(key)})
}

// Message localizes a catalog key, falling back to the key itself
func (h *BaseHandler) Message(key string) string {
	return h.catalog().Message(key, key)
}

// HandleServiceError maps err to its status code and a localized body.
// Anything that is not an AppError is reported as 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		h.Logger.Error("unhandled service error", "error", err)
		appErr = internal.NewInternalError("internal server error", err)
	}

	switch {
	case appErr.StatusCode >= http.StatusInternalServerError:
		h.Logger.Error("request failed", "code", appErr.Code, "error", appErr)
	case appErr.Type == internal.ErrorTypeValidation:
		h.Logger.Debug("request rejected", "code", appErr.Code, "details", appErr.GetDetailedMessage())
	}

	h.WriteError(w, appErr.StatusCode, h.Localize(appErr))
}

// Localize picks the message shown to clients for appErr.
func (h *BaseHandler) Localize(appErr *internal.AppError) string {
	if details, ok := appErr.Details.(internal.ValidationErrors); ok && len(details.Errors) > 0 {
		return details.Errors[0].Message
	}
	return h.catalog().Message(string(appErr.Code), appErr.Message, appErr.Args...)
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return ""
	}

	return strings.TrimSpace(token)
}

// ParseIDParam reads a positive integer URL parameter.
func (h *BaseHandler) ParseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.ErrInvalidID
	}
	return id, nil
}

func (h *BaseHandler) catalog() *i18n.Catalog {
	if h.Messages == nil {
		return i18n.Default()
	}
	return h.Messages
}
