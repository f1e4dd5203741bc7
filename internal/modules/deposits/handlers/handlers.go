// Package handlers provides HTTP handlers for time deposits.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/deposits"
)

// Handler handles deposit HTTP requests
type Handler struct {
	service *deposits.Service
	log     zerolog.Logger
}

// NewHandler creates a new deposit handler
func NewHandler(service *deposits.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "deposits").Logger(),
	}
}

// RegisterRoutes registers deposit routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/deposits", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Post("/{id}/close", h.HandleClose)
	})
	r.Post("/calculations/deposit", h.HandleCalculate)
}

// HandleList handles GET /api/deposits
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListDeposits(r.Context(), userID)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/deposits
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req deposits.DepositRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	deposit, err := h.service.CreateTimeDeposit(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, deposit)
}

// HandleClose handles POST /api/deposits/{id}/close
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.IDParam(w, r, "id")
	if !ok {
		return
	}

	deposit, err := h.service.CloseDepositEarly(r.Context(), userID, id)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, deposit)
}

// HandleCalculate handles POST /api/calculations/deposit
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	var req deposits.CalculationRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	preview, err := h.service.CalculateDeposit(r.Context(), req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, preview)
}
