// Package handlers provides the HTTP handler for investment execution.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/investments"
)

// Handler handles investment HTTP requests
type Handler struct {
	service *investments.Service
	log     zerolog.Logger
}

// NewHandler creates a new investment handler
func NewHandler(service *investments.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "investments").Logger(),
	}
}

// RegisterRoutes registers the investment route
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/transactions/investment", h.HandleExecute)
}

// HandleExecute handles POST /api/transactions/investment
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req investments.InvestmentRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	result, err := h.service.ExecuteInvestment(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, result)
}
