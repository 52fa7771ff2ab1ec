// Package handlers provides HTTP handlers for snapshot ingestion.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/driftline/ballast/internal/modules/accounts"
	"github.com/rs/zerolog"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	service *accounts.Service
	log     zerolog.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(service *accounts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "accounts").Logger(),
	}
}

// HandleIngestSnapshot handles POST /api/accounts/snapshot
func (h *Handler) HandleIngestSnapshot(w http.ResponseWriter, r *http.Request) {
	var raw accounts.RawSnapshot
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snap, err := h.service.Ingest(&raw)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to ingest snapshot")
		http.Error(w, "Failed to ingest snapshot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": snap,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetLatest handles GET /api/accounts/snapshot/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest snapshot")
		http.Error(w, "Failed to load latest snapshot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": snap,
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
