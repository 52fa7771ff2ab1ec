package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all drift routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/drift", func(r chi.Router) {
		r.Get("/status", h.HandleGetStatus)
		r.Get("/worst", h.HandleGetWorst)
	})
}
