package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all allocation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/allocation", func(r chi.Router) {
		r.Get("/model", h.HandleGetModel)
		r.Put("/model", h.HandleReplaceModel)
		r.Get("/model/{class}/items", h.HandleGetClassItems)
	})
}
