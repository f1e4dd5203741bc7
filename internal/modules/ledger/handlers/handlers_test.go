package handlers

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

type fixture struct {
	router http.Handler
	db     *database.DB
	userID int64
	accID  int64
}

func setup(t *testing.T) *fixture {
	db := testutil.NewTestDB(t, "ledger")
	log := zerolog.Nop()
	poster := ledger.NewPoster(accounts.NewRepository(db.Conn(), log), ledger.NewRepository(db.Conn(), log))
	svc := ledger.NewService(poster, ledger.NewCategoryRepository(db.Conn(), log), nil, log)
	h := NewHandler(svc, log)

	userID := testutil.InsertUser(t, db.Conn(), "zeynep", "Zeynep", "Arslan")
	return &fixture{
		router: testutil.Router(func(r chi.Router) { h.RegisterRoutes(r) }),
		db:     db,
		userID: userID,
		accID:  testutil.InsertAccount(t, db.Conn(), userID, "TRY", "100", ""),
	}
}

func path(id int64) string {
	return "/transactions/" + strconv.FormatInt(id, 10)
}

func TestRegisterRoutes(t *testing.T) {
	h := NewHandler(nil, zerolog.Nop())
	assert.NotPanics(t, func() {
		h.RegisterRoutes(chi.NewRouter())
	})
}

func TestEntryLifecycle(t *testing.T) {
	f := setup(t)

	rec := testutil.Do(t, f.router, http.MethodPost, "/transactions", f.userID, map[string]interface{}{
		"account_id": f.accID, "amount": "40", "type": "Expense", "description": "groceries",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry domain.Transaction
	testutil.Data(t, rec, &entry)
	assert.Equal(t, "60.00", testutil.Balance(t, f.db.Conn(), f.accID).StringFixed(2))

	rec = testutil.Do(t, f.router, http.MethodPut, path(entry.ID), f.userID, map[string]interface{}{
		"account_id": f.accID, "amount": "25", "type": "Expense", "description": "groceries",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "75.00", testutil.Balance(t, f.db.Conn(), f.accID).StringFixed(2))

	rec = testutil.Do(t, f.router, http.MethodGet, path(entry.ID), f.userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = testutil.Do(t, f.router, http.MethodDelete, path(entry.ID), f.userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100.00", testutil.Balance(t, f.db.Conn(), f.accID).StringFixed(2))

	rec = testutil.Do(t, f.router, http.MethodGet, path(entry.ID), f.userID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCashEndpoints(t *testing.T) {
	f := setup(t)

	rec := testutil.Do(t, f.router, http.MethodPost, "/transactions/deposit", f.userID, map[string]interface{}{
		"account_id": f.accID, "amount": "50",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = testutil.Do(t, f.router, http.MethodPost, "/transactions/withdraw", f.userID, map[string]interface{}{
		"account_id": f.accID, "amount": "500",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, testutil.ErrorMessage(t, rec), "insufficient balance")
	assert.Equal(t, "150.00", testutil.Balance(t, f.db.Conn(), f.accID).StringFixed(2))

	rec = testutil.Do(t, f.router, http.MethodPost, "/transactions/withdraw", f.userID, map[string]interface{}{
		"account_id": f.accID, "amount": "150",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, testutil.Balance(t, f.db.Conn(), f.accID).IsZero())
}

func TestListAndSummary(t *testing.T) {
	f := setup(t)
	for _, body := range []map[string]interface{}{
		{"account_id": f.accID, "amount": "1000", "type": "Income"},
		{"account_id": f.accID, "amount": "300", "type": "Expense"},
	} {
		rec := testutil.Do(t, f.router, http.MethodPost, "/transactions", f.userID, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := testutil.Do(t, f.router, http.MethodGet, "/transactions?limit=1&account_id="+strconv.FormatInt(f.accID, 10), f.userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []domain.Transaction
	testutil.Data(t, rec, &entries)
	assert.Len(t, entries, 1)

	rec = testutil.Do(t, f.router, http.MethodGet, "/transactions/summary?month="+time.Now().UTC().Format("2006-01"), f.userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary ledger.Summary
	testutil.Data(t, rec, &summary)
	assert.Equal(t, "1000", summary.TotalIncome.String())
	assert.Equal(t, "300", summary.TotalExpense.String())
	assert.Equal(t, "700", summary.NetBalance.String())

	rec = testutil.Do(t, f.router, http.MethodGet, "/transactions/summary?month=october", f.userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = testutil.Do(t, f.router, http.MethodGet, "/transactions?from=yesterday", f.userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSystemEntriesCannotBeEdited(t *testing.T) {
	f := setup(t)
	rec := testutil.Do(t, f.router, http.MethodPost, "/transactions/deposit", f.userID, map[string]interface{}{
		"account_id": f.accID, "amount": "10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// cash endpoints record manual entries; a transfer leg is source "transfer"
	res, err := f.db.Conn().Exec(`UPDATE transactions SET source = 'transfer' WHERE account_id = ?`, f.accID)
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	require.EqualValues(t, 1, n)

	var id int64
	require.NoError(t, f.db.Conn().QueryRow(`SELECT id FROM transactions WHERE account_id = ?`, f.accID).Scan(&id))
	rec = testutil.Do(t, f.router, http.MethodDelete, path(id), f.userID, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategories(t *testing.T) {
	f := setup(t)
	rec := testutil.Do(t, f.router, http.MethodGet, "/categories", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var categories []domain.Category
	testutil.Data(t, rec, &categories)
	assert.NotEmpty(t, categories)
}
