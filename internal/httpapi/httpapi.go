// Package httpapi holds the request and response conventions shared by every
// module's HTTP handlers: the caller identity header, the JSON envelope and the
// mapping of domain errors to status codes.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/domain"
)

// UserHeader carries the authenticated user id, set by the upstream gateway
const UserHeader = "X-User-ID"

type ctxKey struct{}

// ErrNoUser is returned by UserID when the request carries no identity
var ErrNoUser = errors.New("missing " + UserHeader + " header")

// Identity parses X-User-ID into the request context. A malformed header is
// rejected; a missing one is left for handlers that need a user to refuse.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteMessage(w, http.StatusBadRequest, "invalid "+UserHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

// WithUser returns ctx carrying userID
func WithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the caller's id or ErrNoUser
func UserID(r *http.Request) (int64, error) {
	id, ok := r.Context().Value(ctxKey{}).(int64)
	if !ok {
		return 0, ErrNoUser
	}
	return id, nil
}

// RequireUser writes 401 and returns false when the request has no identity
func RequireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := UserID(r)
	if err != nil {
		WriteMessage(w, http.StatusUnauthorized, err.Error())
		return 0, false
	}
	return id, true
}

// IDParam reads a positive integer URL parameter; it writes 400 and returns false otherwise
func IDParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Decode reads a JSON body into v; it writes 400 and returns false on failure
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// WriteData writes {"data": data, "metadata": {"timestamp": ...}}
func WriteData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// WriteMessage writes {"error": message}
func WriteMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// StatusFor maps a domain error kind to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrExternalUnavailable), errors.Is(err, domain.ErrPriceNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError maps err to a status. Domain errors show their message; anything
// else is logged and answered with a generic body.
func WriteError(w http.ResponseWriter, log zerolog.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		WriteMessage(w, status, "internal server error")
		return
	}

	msg := domain.Message(err)
	if msg == "" {
		msg = err.Error()
	}
	log.Debug().Err(err).Int("status", status).Msg("Request rejected")
	WriteMessage(w, status, msg)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
