package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history", func(r chi.Router) {
		r.Get("/drift", h.HandleGetDrift)
		r.Get("/trend", h.HandleGetTrend)
		r.Get("/runs", h.HandleGetRuns)
		r.Get("/latest", h.HandleGetLatest)
	})
}
