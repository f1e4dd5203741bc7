// Package handlers provides HTTP handlers for the market watch list.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/market"
)

// Handler handles market HTTP requests
type Handler struct {
	service *market.Service
	log     zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(service *market.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "market").Logger(),
	}
}

// RegisterRoutes registers market routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market/tracked", func(r chi.Router) {
		r.Get("/", h.HandleListTracked)
		r.Post("/", h.HandleTrack)
		r.Delete("/{symbol}", h.HandleUntrack)
	})
}

// HandleListTracked handles GET /api/market/tracked
func (h *Handler) HandleListTracked(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListTracked(r.Context(), userID)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, list)
}

// HandleTrack handles POST /api/market/tracked
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req market.AssetRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	tracked, err := h.service.TrackAsset(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, tracked)
}

// HandleUntrack handles DELETE /api/market/tracked/{symbol}
func (h *Handler) HandleUntrack(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	symbol := chi.URLParam(r, "symbol")

	if err := h.service.UntrackAsset(r.Context(), userID, symbol); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "tracked": false})
}
