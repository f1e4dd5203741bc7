package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all account routes. Paths are flat because other
// modules add routes under /accounts.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/accounts", h.HandleList)
	r.Post("/accounts", h.HandleCreate)
	r.Get("/accounts/{id}", h.HandleGet)
	r.Put("/accounts/{id}", h.HandleUpdate)
	r.Delete("/accounts/{id}", h.HandleDelete)
}
