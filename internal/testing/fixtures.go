package testing

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// InsertUser inserts a user and returns its id
func InsertUser(t *testing.T, db *sql.DB, username, firstName, lastName string) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO users (username, email, first_name, last_name, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)
	`, username, username+"@example.com", firstName, lastName, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to insert user %s: %v", username, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// InsertAccount inserts an active account with the given balance and returns its id
func InsertAccount(t *testing.T, db *sql.DB, userID int64, currency, balance, iban string) int64 {
	t.Helper()
	accountType := "cash"
	if iban != "" {
		accountType = "bank"
	}
	now := time.Now().Unix()
	res, err := db.Exec(`
		INSERT INTO accounts (user_id, name, account_type, balance, currency, iban, is_active, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, 1, ?, ?)
	`, userID, currency+" account", accountType, decimal.RequireFromString(balance), currency, iban, now, now)
	if err != nil {
		t.Fatalf("Failed to insert account: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// InsertAsset inserts a market asset and returns its id
func InsertAsset(t *testing.T, db *sql.DB, symbol, assetType, currency string) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO market_assets (symbol, name, asset_type, currency, source_api, api_symbol)
		VALUES (?, ?, ?, ?, 'test', ?)
	`, symbol, symbol, assetType, currency, symbol)
	if err != nil {
		t.Fatalf("Failed to insert asset %s: %v", symbol, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// Balance reads an account balance
func Balance(t *testing.T, db *sql.DB, accountID int64) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	if err := db.QueryRow("SELECT balance FROM accounts WHERE id = ?", accountID).Scan(&balance); err != nil {
		t.Fatalf("Failed to read balance of account %d: %v", accountID, err)
	}
	return balance
}

// CountRows counts rows in table matching an optional WHERE clause
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...interface{}) int {
	t.Helper()
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}
