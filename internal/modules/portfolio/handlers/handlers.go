// Package handlers provides HTTP handlers for portfolio valuation and reports.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/portfolio"
	"github.com/fintrack/fintrack/internal/reports"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	valuator *portfolio.Valuator
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(valuator *portfolio.Valuator, log zerolog.Logger) *Handler {
	return &Handler{
		valuator: valuator,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers portfolio routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolio", func(r chi.Router) {
		r.Get("/", h.HandleSummary)
		r.Get("/report", h.HandleReport)
	})
}

// HandleSummary handles GET /api/portfolio
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.valuator.Summary(r.Context(), userID)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, summary)
}

// HandleReport handles GET /api/portfolio/report?format=html|markdown (default html)
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "markdown" {
		httpapi.WriteMessage(w, http.StatusBadRequest, "format must be html or markdown")
		return
	}

	summary, err := h.valuator.Summary(r.Context(), userID)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	body, err := reports.PortfolioMarkdown(summary)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}

	contentType := "text/markdown; charset=utf-8"
	if format == "html" {
		if body, err = reports.HTML(body); err != nil {
			httpapi.WriteError(w, h.log, err)
			return
		}
		contentType = "text/html; charset=utf-8"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
