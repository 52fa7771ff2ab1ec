package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all presentation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/presentation", func(r chi.Router) {
		r.Get("/segments", h.HandleGetSegments)
	})
}
