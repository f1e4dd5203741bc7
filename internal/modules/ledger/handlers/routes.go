package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers ledger routes. /transactions is shared with the
// investments module, so paths are registered flat.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/transactions", h.HandleList)
	r.Post("/transactions", h.HandleCreate)
	r.Get("/transactions/summary", h.HandleSummary)
	r.Post("/transactions/deposit", h.HandleDeposit)
	r.Post("/transactions/withdraw", h.HandleWithdraw)
	r.Get("/transactions/{id}", h.HandleGet)
	r.Put("/transactions/{id}", h.HandleUpdate)
	r.Delete("/transactions/{id}", h.HandleDelete)

	r.Get("/categories", h.HandleCategories)
}
