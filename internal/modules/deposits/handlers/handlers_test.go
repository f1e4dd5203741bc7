package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/deposits"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

func TestRegisterRoutes(t *testing.T) {
	h := NewHandler(nil, zerolog.Nop())
	assert.NotPanics(t, func() {
		h.RegisterRoutes(chi.NewRouter())
	})
}

func TestDepositEndpoints(t *testing.T) {
	db := testutil.NewTestDB(t, "ledger")
	conn := db.Conn()
	log := zerolog.Nop()
	poster := ledger.NewPoster(accounts.NewRepository(conn, log), ledger.NewRepository(conn, log))
	rates := testutil.FakePolicyRate{Rate: decimal.NewFromInt(50)}
	h := NewHandler(deposits.NewService(deposits.NewRepository(conn, log), poster, rates, nil, log), log)
	router := testutil.Router(func(r chi.Router) { h.RegisterRoutes(r) })

	userID := testutil.InsertUser(t, conn, "elif", "Elif", "Şahin")
	other := testutil.InsertUser(t, conn, "ozan", "Ozan", "Tekin")
	accID := testutil.InsertAccount(t, conn, userID, "TRY", "12000", "")

	rec := testutil.Do(t, router, http.MethodPost, "/calculations/deposit", 0, map[string]interface{}{
		"amount": "10000", "term_months": 12,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview deposits.Preview
	testutil.Data(t, rec, &preview)
	assert.Equal(t, "34", preview.AnnualInterestRatePercent.String())
	assert.Equal(t, "3400", preview.TotalInterest.String())

	rec = testutil.Do(t, router, http.MethodPost, "/deposits", userID, map[string]interface{}{
		"source_account_id": accID, "amount": "10000", "term_months": 12, "maturity_action": "RenewPrincipal",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var deposit domain.TimeDeposit
	testutil.Data(t, rec, &deposit)
	assert.Equal(t, domain.RenewPrincipal, deposit.MaturityAction)
	assert.Equal(t, "2000.00", testutil.Balance(t, conn, accID).StringFixed(2))

	closePath := "/deposits/" + strconv.FormatInt(deposit.ID, 10) + "/close"
	rec = testutil.Do(t, router, http.MethodPost, closePath, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = testutil.Do(t, router, http.MethodPost, closePath, userID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "12000.00", testutil.Balance(t, conn, accID).StringFixed(2))

	rec = testutil.Do(t, router, http.MethodPost, closePath, userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Do(t, router, http.MethodGet, "/deposits", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.TimeDeposit
	testutil.Data(t, rec, &list)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsActive)
}

func TestDepositPolicyRateUnavailable(t *testing.T) {
	db := testutil.NewTestDB(t, "ledger")
	conn := db.Conn()
	log := zerolog.Nop()
	poster := ledger.NewPoster(accounts.NewRepository(conn, log), ledger.NewRepository(conn, log))
	rates := testutil.FakePolicyRate{Err: domain.ExternalUnavailable(nil, "policy feed down")}
	h := NewHandler(deposits.NewService(deposits.NewRepository(conn, log), poster, rates, nil, log), log)
	router := testutil.Router(func(r chi.Router) { h.RegisterRoutes(r) })

	rec := testutil.Do(t, router, http.MethodPost, "/calculations/deposit", 0, map[string]interface{}{
		"amount": "10000", "term_months": 6,
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
