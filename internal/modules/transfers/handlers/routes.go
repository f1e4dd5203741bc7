package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers transfer routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/transfers", func(r chi.Router) {
		r.Post("/own", h.HandleOwn)
		r.Post("/wire", h.HandleWire)
	})
	r.Get("/accounts/verify-iban/{iban}", h.HandleVerifyIBAN)
}
