// Package handlers provides HTTP handlers for triggering evaluation runs.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/driftline/ballast/internal/evaluation"
	"github.com/rs/zerolog"
)

// Handler handles evaluation HTTP requests
type Handler struct {
	service *evaluation.Service
	log     zerolog.Logger
}

// NewHandler creates a new evaluation handler
func NewHandler(service *evaluation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "evaluation").Logger(),
	}
}

// HandleEvaluate handles POST /api/evaluate
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	result, err := h.service.Run()
	if err != nil {
		h.log.Error().Err(err).Msg("Evaluation run failed")
		http.Error(w, "Failed to run evaluation", http.StatusInternalServerError)
		return
	}

	h.log.Debug().
		Str("run_id", result.RunID).
		Dur("elapsed", time.Since(started)).
		Msg("Evaluation triggered via API")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": result,
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
