// Package handlers provides HTTP handlers for runtime settings.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/settings"
)

// Handler handles settings HTTP requests
type Handler struct {
	service  *settings.Service
	onChange func()
	log      zerolog.Logger
}

// NewHandler creates a new settings handler. onChange, if set, runs after every successful update.
func NewHandler(service *settings.Service, onChange func(), log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		onChange: onChange,
		log:      log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers settings routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/{key}", h.HandleUpdate)
	})
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll()
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, all)
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req settings.SettingUpdate
	if !httpapi.Decode(w, r, &req) {
		return
	}

	if err := h.service.Set(key, req.Value); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	if h.onChange != nil {
		h.onChange()
	}
	httpapi.WriteData(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}
