// Package handlers provides HTTP handlers for trade simulation.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/driftline/ballast/internal/modules/rebalancing"
	"github.com/rs/zerolog"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service *rebalancing.Service
	log     zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(service *rebalancing.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "rebalancing").Logger(),
	}
}

// SimulateBucket is one asset class drill-down in a what-if request
type SimulateBucket struct {
	AssetClass string               `json:"asset_class"`
	Target     []allocation.RawItem `json:"target"`
	Actual     []allocation.RawItem `json:"actual"`
}

// SimulateRequest is a what-if simulation over caller-supplied state.
// Unknown asset classes degrade to skipped entries rather than errors.
type SimulateRequest struct {
	TotalEvalAmount float64            `json:"total_eval_amount"`
	Targets         map[string]float64 `json:"targets"`
	Actuals         map[string]float64 `json:"actuals"`
	SubAllocations  []SimulateBucket   `json:"sub_allocations"`
	Thresholds      *domain.Thresholds `json:"thresholds,omitempty"`
}

// HandleGetOrders handles GET /api/rebalancing/orders
func (h *Handler) HandleGetOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Simulate()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to simulate orders")
		http.Error(w, "Failed to simulate orders", http.StatusInternalServerError)
		return
	}

	h.writeResult(w, result)
}

// HandleSimulate handles POST /api/rebalancing/simulate
func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	input := h.buildInput(&req)
	result := h.service.SimulateWith(input, req.TotalEvalAmount)

	h.writeResult(w, result)
}

func (h *Handler) buildInput(req *SimulateRequest) *domain.RebalancingStatus {
	targets, unknownTargets := allocation.ParseClassPercents(req.Targets)
	actuals, unknownActuals := allocation.ParseClassPercents(req.Actuals)
	for _, rawClass := range append(unknownTargets, unknownActuals...) {
		h.log.Debug().Str("asset_class", rawClass).Msg("Skipping unknown asset class in simulation request")
	}

	subs := make([]domain.SubAllocationBucket, 0, len(req.SubAllocations))
	for _, bucket := range req.SubAllocations {
		class, ok := domain.ParseAssetClass(bucket.AssetClass)
		if !ok {
			h.log.Debug().Str("asset_class", bucket.AssetClass).Msg("Skipping unknown asset class bucket in simulation request")
			continue
		}
		subs = append(subs, domain.SubAllocationBucket{
			AssetClass: class,
			Target:     allocation.ParseItems(bucket.Target),
			Actual:     allocation.ParseItems(bucket.Actual),
		})
	}

	thresholds := h.service.Thresholds()
	if req.Thresholds != nil {
		thresholds = req.Thresholds.Sanitize()
	}

	return &domain.RebalancingStatus{
		TargetAllocation: targets,
		ActualAllocation: actuals,
		SubAllocations:   subs,
		Thresholds:       thresholds,
	}
}

func (h *Handler) writeResult(w http.ResponseWriter, result *rebalancing.SimulationResult) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"result":                result,
			"mp_orders_display":     rebalancing.FormatOrders(result.MPOrders),
			"sub_mp_orders_display": rebalancing.FormatOrders(result.SubMPOrders),
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
