package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all accounts routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Post("/snapshot", h.HandleIngestSnapshot)
		r.Get("/snapshot/latest", h.HandleGetLatest)
	})
}
