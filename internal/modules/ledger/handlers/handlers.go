// Package handlers provides HTTP handlers for manual ledger entries.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/httpapi"
	"github.com/fintrack/fintrack/internal/modules/ledger"
)

// Handler handles ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleList handles GET /api/transactions?account_id=&from=&to=&limit=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httpapi.WriteMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.service.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, entries)
}

// HandleCreate handles POST /api/transactions
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req ledger.EntryRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	entry, err := h.service.CreateTransaction(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, entry)
}

// HandleGet handles GET /api/transactions/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.IDParam(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.service.GetTransaction(r.Context(), userID, id)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, entry)
}

// HandleUpdate handles PUT /api/transactions/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.IDParam(w, r, "id")
	if !ok {
		return
	}
	var req ledger.EntryRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	entry, err := h.service.UpdateTransaction(r.Context(), userID, id, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, entry)
}

// HandleDelete handles DELETE /api/transactions/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	id, ok := httpapi.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), userID, id); err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}

// HandleSummary handles GET /api/transactions/summary?month=YYYY-MM (default: current month)
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}

	at := time.Now().UTC()
	if month := r.URL.Query().Get("month"); month != "" {
		parsed, err := time.Parse("2006-01", month)
		if err != nil {
			httpapi.WriteMessage(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		at = parsed
	}

	summary, err := h.service.MonthlySummary(r.Context(), userID, at)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, summary)
}

// HandleDeposit handles POST /api/transactions/deposit
func (h *Handler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	h.handleCash(w, r, h.service.Deposit)
}

// HandleWithdraw handles POST /api/transactions/withdraw
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.handleCash(w, r, h.service.Withdraw)
}

// HandleCategories handles GET /api/categories
func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusOK, categories)
}

type cashFunc func(ctx context.Context, userID int64, req ledger.CashRequest) (*domain.Transaction, error)

func (h *Handler) handleCash(w http.ResponseWriter, r *http.Request, fn cashFunc) {
	userID, ok := httpapi.RequireUser(w, r)
	if !ok {
		return
	}
	var req ledger.CashRequest
	if !httpapi.Decode(w, r, &req) {
		return
	}

	entry, err := fn(r.Context(), userID, req)
	if err != nil {
		httpapi.WriteError(w, h.log, err)
		return
	}
	httpapi.WriteData(w, http.StatusCreated, entry)
}

func parseFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	var f ledger.Filter

	if raw := q.Get("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("invalid account_id")
		}
		f.AccountID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return f, fmt.Errorf("invalid limit")
		}
		f.Limit = limit
	}

	var err error
	if f.From, err = parseTime(q.Get("from")); err != nil {
		return f, fmt.Errorf("invalid from: %w", err)
	}
	if f.To, err = parseTime(q.Get("to")); err != nil {
		return f, fmt.Errorf("invalid to: %w", err)
	}
	return f, nil
}

// parseTime accepts a date or an RFC 3339 timestamp; empty yields the zero time
func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
