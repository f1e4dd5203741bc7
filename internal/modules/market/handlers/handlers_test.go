package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/market"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

func TestWatchList(t *testing.T) {
	db := testutil.NewTestDB(t, "ledger")
	conn := db.Conn()
	log := zerolog.Nop()
	h := NewHandler(market.NewService(market.NewRepository(conn, log), nil, log), log)
	router := testutil.Router(func(r chi.Router) { h.RegisterRoutes(r) })
	userID := testutil.InsertUser(t, conn, "burak", "Burak", "Güneş")

	rec := testutil.Do(t, router, http.MethodPost, "/market/tracked", userID, map[string]interface{}{
		"symbol": "aapl", "name": "Apple", "asset_type": "Stock", "currency": "usd",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var tracked domain.TrackedAsset
	testutil.Data(t, rec, &tracked)
	assert.Equal(t, "AAPL", tracked.Asset.Symbol)

	rec = testutil.Do(t, router, http.MethodGet, "/market/tracked", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.TrackedAsset
	testutil.Data(t, rec, &list)
	assert.Len(t, list, 1)

	rec = testutil.Do(t, router, http.MethodPost, "/market/tracked", userID, map[string]interface{}{
		"symbol": "", "asset_type": "Stock", "currency": "USD",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Do(t, router, http.MethodDelete, "/market/tracked/aapl", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = testutil.Do(t, router, http.MethodDelete, "/market/tracked/AAPL", userID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
