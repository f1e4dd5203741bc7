// Package ledger holds the ledger primitives: the entry store, the Poster that
// keeps an account balance and its entries in step, and the service for manual
// income/expense and cash movements.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
)

const entryColumns = `id, account_id, user_id, category_id, amount, description, transaction_type, source,
	reference, transaction_date, created_at, market_asset_id, quantity, price`

// Filter narrows ListByUser
type Filter struct {
	AccountID int64
	From      time.Time
	To        time.Time
	Limit     int
}

// Repository handles ledger entry (transactions table) operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new ledger entry repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "ledger").Logger(),
	}
}

func (r *Repository) querier(q database.Querier) database.Querier {
	if q == nil {
		return r.db
	}
	return q
}

// Insert records an entry. Amount is stored as a rounded positive magnitude.
func (r *Repository) Insert(ctx context.Context, q database.Querier, e *domain.Transaction) error {
	if !e.Type.Valid() {
		return domain.InvalidState("unknown transaction type %q", e.Type)
	}
	e.Amount = domain.RoundMoney(e.Amount)
	if !e.Amount.IsPositive() {
		return domain.InvalidState("amount must be greater than zero")
	}
	if e.Source == "" {
		e.Source = domain.SourceManual
	}
	now := time.Now().UTC().Truncate(time.Second)
	if e.TransactionDate.IsZero() {
		e.TransactionDate = now
	}
	e.TransactionDate = e.TransactionDate.UTC().Truncate(time.Second)
	e.CreatedAt = now

	res, err := r.querier(q).ExecContext(ctx, `
		INSERT INTO transactions (account_id, user_id, category_id, amount, description, transaction_type, source,
			reference, transaction_date, created_at, market_asset_id, quantity, price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.AccountID, e.UserID, nullInt(e.CategoryID), e.Amount, e.Description, string(e.Type), string(e.Source),
		e.Reference, e.TransactionDate.Unix(), now.Unix(), nullInt(e.MarketAssetID), nullDecimal(e.Quantity), nullDecimal(e.Price))
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read ledger entry id: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a manual entry
func (r *Repository) Update(ctx context.Context, q database.Querier, e *domain.Transaction) error {
	e.Amount = domain.RoundMoney(e.Amount)
	_, err := r.querier(q).ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, category_id = ?, amount = ?, description = ?, transaction_type = ?, transaction_date = ?
		WHERE id = ?
	`, e.AccountID, nullInt(e.CategoryID), e.Amount, e.Description, string(e.Type), e.TransactionDate.UTC().Unix(), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry %d: %w", e.ID, err)
	}
	return nil
}

// Delete removes an entry
func (r *Repository) Delete(ctx context.Context, q database.Querier, id int64) error {
	if _, err := r.querier(q).ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete ledger entry %d: %w", id, err)
	}
	return nil
}

// GetByID returns nil when the entry does not exist
func (r *Repository) GetByID(ctx context.Context, q database.Querier, id int64) (*domain.Transaction, error) {
	row := r.querier(q).QueryRowContext(ctx, "SELECT "+entryColumns+" FROM transactions WHERE id = ?", id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %d: %w", id, err)
	}
	return e, nil
}

// ListByUser returns the user's entries, newest first
func (r *Repository) ListByUser(ctx context.Context, userID int64, f Filter) ([]domain.Transaction, error) {
	query := "SELECT " + entryColumns + " FROM transactions WHERE user_id = ?"
	args := []interface{}{userID}

	if f.AccountID != 0 {
		query += " AND account_id = ?"
		args = append(args, f.AccountID)
	}
	if !f.From.IsZero() {
		query += " AND transaction_date >= ?"
		args = append(args, f.From.UTC().Unix())
	}
	if !f.To.IsZero() {
		query += " AND transaction_date < ?"
		args = append(args, f.To.UTC().Unix())
	}
	query += " ORDER BY transaction_date DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return r.list(ctx, query, args...)
}

// ListByReference returns the legs sharing a reference, in insertion order
func (r *Repository) ListByReference(ctx context.Context, reference string) ([]domain.Transaction, error) {
	return r.list(ctx, "SELECT "+entryColumns+" FROM transactions WHERE reference = ? ORDER BY id", reference)
}

// CountByAccount counts the entries posted to an account
func (r *Repository) CountByAccount(ctx context.Context, q database.Querier, accountID int64) (int, error) {
	var n int
	if err := r.querier(q).QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE account_id = ?", accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return n, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.Transaction, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.Transaction, error) {
	var e domain.Transaction
	var categoryID, assetID sql.NullInt64
	var quantity, price decimal.NullDecimal
	var txType, source string
	var txDate, created int64

	err := row.Scan(&e.ID, &e.AccountID, &e.UserID, &categoryID, &e.Amount, &e.Description, &txType, &source,
		&e.Reference, &txDate, &created, &assetID, &quantity, &price)
	if err != nil {
		return nil, err
	}

	e.Type = domain.TransactionType(txType)
	e.Source = domain.EntrySource(source)
	e.TransactionDate = time.Unix(txDate, 0).UTC()
	e.CreatedAt = time.Unix(created, 0).UTC()
	if categoryID.Valid {
		e.CategoryID = &categoryID.Int64
	}
	if assetID.Valid {
		e.MarketAssetID = &assetID.Int64
	}
	if quantity.Valid {
		e.Quantity = &quantity.Decimal
	}
	if price.Valid {
		e.Price = &price.Decimal
	}
	return &e, nil
}

func nullInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullDecimal(v *decimal.Decimal) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
