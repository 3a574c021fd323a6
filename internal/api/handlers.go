package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"hoststatus/internal/models"
)

// StatusBuilder produces a fresh status snapshot for each call.
type StatusBuilder interface {
	Build(ctx context.Context) (*models.StatusSnapshot, error)
}

// Handlers contains HTTP handlers for the status server
type Handlers struct {
	builder StatusBuilder
}

// NewHandlers creates a new handlers instance
func NewHandlers(builder StatusBuilder) *Handlers {
	return &Handlers{
		builder: builder,
	}
}

// Status handles host status requests
// GET /status
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.builder.Build(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to build status", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeMetricsUnavailable, err.Error())
		return
	}

	w.Header().Set("X-Status-Schema", models.StatusSchemaVersion)
	h.writeJSONResponse(w, http.StatusOK, snapshot)
}

// Forbidden answers every route other than GET /status with an empty 403.
func (h *Handlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing left but to log.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	h.writeJSONResponse(w, statusCode, errorResp)
}
