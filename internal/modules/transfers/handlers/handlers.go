// Package handlers provides HTTP handlers for transfers and IBAN verification.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/transfers"
)

// Handler handles transfer HTTP requests
type Handler struct {
	service *transfers.Service
	log     zerolog.Logger
}

// NewHandler creates a new transfer handler
func NewHandler(service *transfers.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "transfers").Logger(),
	}
}

// HandleOwn handles POST /api/transfers/own
func (h *Handler) HandleOwn(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req transfers.TransferRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	result, err := h.service.TransferBetweenOwnAccounts(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, result)
}

// HandleWire handles POST /api/transfers/wire
func (h *Handler) HandleWire(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req transfers.WireRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	result, err := h.service.TransferToAnotherUser(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, result)
}

// HandleVerifyIBAN handles GET /api/accounts/verify-iban/{iban}.
// Any authenticated user may look up a recipient before sending a wire.
func (h *Handler) HandleVerifyIBAN(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpapi.RequireUser(w, r); !ok {
		return
	}

	recipient, err := h.service.VerifyRecipientByIBAN(r.Context(), chi.URLParam(r, "iban"))
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, recipient)
}
