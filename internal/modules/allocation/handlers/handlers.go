// Package handlers provides HTTP handlers for model portfolio management.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles model portfolio HTTP requests
type Handler struct {
	service *allocation.Service
	log     zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(service *allocation.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "allocation").Logger(),
	}
}

// ReplaceModelRequest represents a request to replace the model portfolio
type ReplaceModelRequest struct {
	Targets map[string]float64              `json:"targets"`
	Items   map[string][]allocation.RawItem `json:"items"`
}

// HandleGetModel handles GET /api/allocation/model
func (h *Handler) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.service.GetModel()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load model portfolio")
		http.Error(w, "Failed to load model portfolio", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": model,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleReplaceModel handles PUT /api/allocation/model
func (h *Handler) HandleReplaceModel(w http.ResponseWriter, r *http.Request) {
	var req ReplaceModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	targets, unknown := allocation.ParseClassPercents(req.Targets)
	if len(unknown) > 0 {
		http.Error(w, fmt.Sprintf("unknown asset classes in targets: %v", unknown), http.StatusBadRequest)
		return
	}

	items := make(map[domain.AssetClass][]domain.SubAllocationItem, len(req.Items))
	for rawClass, rawItems := range req.Items {
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown asset class in items: %s", rawClass), http.StatusBadRequest)
			return
		}
		items[class] = allocation.ParseItems(rawItems)
	}

	model := &allocation.ModelPortfolio{Targets: targets, Items: items}
	if err := h.service.ReplaceModel(model); err != nil {
		h.log.Error().Err(err).Msg("Failed to replace model portfolio")
		http.Error(w, "Failed to replace model portfolio", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": model,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetClassItems handles GET /api/allocation/model/{class}/items
func (h *Handler) HandleGetClassItems(w http.ResponseWriter, r *http.Request) {
	class, ok := domain.ParseAssetClass(chi.URLParam(r, "class"))
	if !ok {
		http.Error(w, "Unknown asset class", http.StatusBadRequest)
		return
	}

	model, err := h.service.GetModel()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load model portfolio")
		http.Error(w, "Failed to load model portfolio", http.StatusInternalServerError)
		return
	}

	items := model.Items[class]
	if items == nil {
		items = []domain.SubAllocationItem{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"asset_class":  class,
			"items":        items,
			"total_weight": allocation.TotalOf(items),
		},
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
