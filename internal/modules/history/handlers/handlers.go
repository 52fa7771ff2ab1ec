// Package handlers provides HTTP handlers for drift history queries.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/modules/history"
	"github.com/rs/zerolog"
)

// Handler handles history HTTP requests
type Handler struct {
	service *history.Service
	log     zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(service *history.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "history").Logger(),
	}
}

// HandleGetDrift handles GET /api/history/drift?class=stocks&days=30
func (h *Handler) HandleGetDrift(w http.ResponseWriter, r *http.Request) {
	class, ok := domain.ParseAssetClass(r.URL.Query().Get("class"))
	if !ok {
		http.Error(w, "Unknown asset class", http.StatusBadRequest)
		return
	}
	days := queryInt(r, "days", 30)

	points, err := h.service.ClassSeries(class, days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load drift series")
		http.Error(w, "Failed to load drift series", http.StatusInternalServerError)
		return
	}

	stats, err := h.service.ClassStats(class, days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute drift stats")
		http.Error(w, "Failed to compute drift stats", http.StatusInternalServerError)
		return
	}

	if points == nil {
		points = []history.Point{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset_class": class,
			"days":        days,
			"series":      points,
			"stats":       stats,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetTrend handles GET /api/history/trend?class=stocks&days=30&period=10
func (h *Handler) HandleGetTrend(w http.ResponseWriter, r *http.Request) {
	class, ok := domain.ParseAssetClass(r.URL.Query().Get("class"))
	if !ok {
		http.Error(w, "Unknown asset class", http.StatusBadRequest)
		return
	}
	days := queryInt(r, "days", 30)
	period := queryInt(r, "period", 10)

	trend, err := h.service.ClassTrend(class, days, period)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute drift trend")
		http.Error(w, "Failed to compute drift trend", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset_class": class,
			"days":        days,
			"trend":       trend,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetRuns handles GET /api/history/runs?limit=20
func (h *Handler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)

	runs, err := h.service.RecentRuns(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recent runs")
		http.Error(w, "Failed to load recent runs", http.StatusInternalServerError)
		return
	}

	if runs == nil {
		runs = []history.RunSummary{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": runs,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetLatest handles GET /api/history/latest
func (h *Handler) HandleGetLatest(w http.ResponseWriter, r *http.Request) {
	eval, err := h.service.LatestEvaluation()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest evaluation")
		http.Error(w, "Failed to load latest evaluation", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": eval,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
