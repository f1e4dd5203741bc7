package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers loan routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/loans", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
	})
	r.Post("/calculations/loan", h.HandleCalculate)
}
