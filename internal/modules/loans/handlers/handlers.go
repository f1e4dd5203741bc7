// Package handlers provides HTTP handlers for loan origination and previews.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/loans"
)

// Handler handles loan HTTP requests
type Handler struct {
	service *loans.Service
	log     zerolog.Logger
}

// NewHandler creates a new loan handler
func NewHandler(service *loans.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "loans").Logger(),
	}
}

// HandleList handles GET /api/loans
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListLoans(r.Context(), userID)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/loans
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req loans.LoanRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, loan)
}

// HandleCalculate handles POST /api/calculations/loan. No identity is needed.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req loans.CalculationRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	quote, err := h.service.CalculateLoan(req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, quote)
}
