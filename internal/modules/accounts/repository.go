// Package accounts manages balance-holding accounts, their IBANs and their
// version-checked balance writes.
package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
)

const accountColumns = `id, user_id, name, account_type, balance, currency, iban, is_active, version, created_at, updated_at`

// Repository handles account database operations.
// Methods taking a database.Querier run on whatever transaction the caller holds;
// a nil Querier means "use the pool".
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new account repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "accounts").Logger(),
	}
}

// DB returns the ledger connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) querier(q database.Querier) database.Querier {
	if q == nil {
		return r.db
	}
	return q
}

// Create inserts an account; bank accounts get the next IBAN from the sequence
func (r *Repository) Create(ctx context.Context, q database.Querier, acc *domain.Account) error {
	q = r.querier(q)

	if acc.Type == domain.AccountBank && acc.IBAN == "" {
		seq, err := r.nextIBANSequence(ctx, q)
		if err != nil {
			return err
		}
		acc.IBAN = BuildIBAN(seq)
	}

	now := time.Now().UTC().Truncate(time.Second)
	acc.CreatedAt, acc.UpdatedAt = now, now
	acc.Version = 1
	acc.IsActive = true
	acc.Balance = domain.RoundMoney(acc.Balance)

	res, err := q.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name, account_type, balance, currency, iban, is_active, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, 1, ?, ?)
	`, acc.UserID, acc.Name, string(acc.Type), acc.Balance, acc.Currency, acc.IBAN, now.Unix(), now.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.Conflict("IBAN %s is already assigned", acc.IBAN)
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	acc.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read account id: %w", err)
	}
	return nil
}

func (r *Repository) nextIBANSequence(ctx context.Context, q database.Querier) (int64, error) {
	if _, err := q.ExecContext(ctx, "UPDATE iban_sequence SET next_value = next_value + 1 WHERE id = 1"); err != nil {
		return 0, fmt.Errorf("failed to advance iban sequence: %w", err)
	}
	var seq int64
	if err := q.QueryRowContext(ctx, "SELECT next_value - 1 FROM iban_sequence WHERE id = 1").Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to read iban sequence: %w", err)
	}
	return seq, nil
}

// GetByID returns nil when the account does not exist
func (r *Repository) GetByID(ctx context.Context, q database.Querier, id int64) (*domain.Account, error) {
	row := r.querier(q).QueryRowContext(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return acc, nil
}

// GetActiveByIBAN returns nil when no active account carries iban
func (r *Repository) GetActiveByIBAN(ctx context.Context, q database.Querier, iban string) (*domain.Account, error) {
	if iban == "" {
		return nil, nil
	}
	row := r.querier(q).QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE iban = ? AND is_active = 1", iban)
	acc, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by iban: %w", err)
	}
	return acc, nil
}

// ListByUser returns the user's accounts ordered by id
func (r *Repository) ListByUser(ctx context.Context, userID int64, includeInactive bool) ([]domain.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts WHERE user_id = ?"
	if !includeInactive {
		query += " AND is_active = 1"
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// SaveBalance writes acc.Balance if nobody else changed the row since it was read.
// On success acc.Version is advanced; on a stale version ErrConflict is returned.
func (r *Repository) SaveBalance(ctx context.Context, q database.Querier, acc *domain.Account) error {
	return r.update(ctx, q, acc, "balance = ?", acc.Balance)
}

// SaveDetails writes name and type under the same version check as SaveBalance
func (r *Repository) SaveDetails(ctx context.Context, q database.Querier, acc *domain.Account) error {
	return r.update(ctx, q, acc, "name = ?, account_type = ?", acc.Name, string(acc.Type))
}

// Deactivate soft-deletes the account; the balance is left untouched
func (r *Repository) Deactivate(ctx context.Context, q database.Querier, acc *domain.Account) error {
	if err := r.update(ctx, q, acc, "is_active = 0"); err != nil {
		return err
	}
	acc.IsActive = false
	return nil
}

func (r *Repository) update(ctx context.Context, q database.Querier, acc *domain.Account, set string, args ...interface{}) error {
	now := time.Now().UTC().Truncate(time.Second)
	args = append(args, now.Unix(), acc.ID, acc.Version)

	res, err := r.querier(q).ExecContext(ctx,
		"UPDATE accounts SET "+set+", version = version + 1, updated_at = ? WHERE id = ? AND version = ?",
		args...)
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", acc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		r.log.Warn().Int64("account_id", acc.ID).Int64("version", acc.Version).Msg("Stale account version")
		return domain.Conflict("account %d was modified concurrently, retry the operation", acc.ID)
	}

	acc.Version++
	acc.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var acc domain.Account
	var accountType string
	var active int
	var created, updated int64
	err := row.Scan(&acc.ID, &acc.UserID, &acc.Name, &accountType, &acc.Balance, &acc.Currency,
		&acc.IBAN, &active, &acc.Version, &created, &updated)
	if err != nil {
		return nil, err
	}
	acc.Type = domain.AccountType(accountType)
	acc.IsActive = active == 1
	acc.CreatedAt = time.Unix(created, 0).UTC()
	acc.UpdatedAt = time.Unix(updated, 0).UTC()
	return &acc, nil
}
