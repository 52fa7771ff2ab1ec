package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers evaluation routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/evaluate", h.HandleEvaluate)
}
