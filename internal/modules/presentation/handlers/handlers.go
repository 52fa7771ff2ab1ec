// Package handlers provides HTTP handlers for segment rendering data.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/driftline/ballast/internal/modules/presentation"
	"github.com/rs/zerolog"
)

// Handler handles presentation HTTP requests
type Handler struct {
	service *presentation.Service
	log     zerolog.Logger
}

// NewHandler creates a new presentation handler
func NewHandler(service *presentation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "presentation").Logger(),
	}
}

// HandleGetSegments handles GET /api/presentation/segments
func (h *Handler) HandleGetSegments(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build segment view")
		http.Error(w, "Failed to build segment view", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": view,
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
