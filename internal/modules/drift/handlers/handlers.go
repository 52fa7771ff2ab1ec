// Package handlers provides HTTP handlers for drift reporting.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/driftline/ballast/internal/modules/drift"
	"github.com/rs/zerolog"
)

// Handler handles drift HTTP requests
type Handler struct {
	service *drift.Service
	log     zerolog.Logger
}

// NewHandler creates a new drift handler
func NewHandler(service *drift.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "drift").Logger(),
	}
}

// HandleGetStatus handles GET /api/drift/status
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Status()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute drift status")
		http.Error(w, "Failed to compute drift status", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetWorst handles GET /api/drift/worst
func (h *Handler) HandleGetWorst(w http.ResponseWriter, r *http.Request) {
	worst, err := h.service.Worst()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute worst drift")
		http.Error(w, "Failed to compute worst drift", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": worst,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
