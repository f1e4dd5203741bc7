// Package handlers provides HTTP handlers for account operations.
package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/accounts"
)

// Handler handles account HTTP requests
type Handler struct {
	service *accounts.Service
	log     zerolog.Logger
}

// NewHandler creates a new account handler
func NewHandler(service *accounts.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "accounts").Logger(),
	}
}

// HandleList handles GET /api/accounts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, list)
}

// HandleCreate handles POST /api/accounts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req accounts.CreateAccountRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	acc, err := h.service.CreateAccount(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, acc)
}

// HandleGet handles GET /api/accounts/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.IDParam(w, r, "id")
	if !ok {
		return
	}

	acc, err := h.service.GetAccount(r.Context(), userID, id)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, acc)
}

// HandleUpdate handles PUT /api/accounts/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.IDParam(w, r, "id")
	if !ok {
		return
	}
	var req accounts.UpdateAccountRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	acc, err := h.service.UpdateAccount(r.Context(), userID, id, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, acc)
}

// HandleDelete handles DELETE /api/accounts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID, id); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}
