package deposits

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
)

const depositColumns = `id, user_id, source_account_id, principal, interest_rate, term_months, start_date, end_date,
	maturity_amount, maturity_action, is_active`

// Repository handles time deposit database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new time deposit repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "deposits").Logger(),
	}
}

func (r *Repository) querier(q database.Querier) database.Querier {
	if q == nil {
		return r.db
	}
	return q
}

// Create inserts an active deposit
func (r *Repository) Create(ctx context.Context, q database.Querier, d *domain.TimeDeposit) error {
	d.IsActive = true
	res, err := r.querier(q).ExecContext(ctx, `
		INSERT INTO time_deposits (user_id, source_account_id, principal, interest_rate, term_months, start_date,
			end_date, maturity_amount, maturity_action, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`, d.UserID, d.SourceAccountID, d.Principal, d.InterestRate, d.TermMonths, d.StartDate.Unix(),
		d.EndDate.Unix(), d.MaturityAmount, string(d.MaturityAction))
	if err != nil {
		return fmt.Errorf("failed to insert time deposit: %w", err)
	}
	d.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read time deposit id: %w", err)
	}
	return nil
}

// GetByID returns nil when the deposit does not exist
func (r *Repository) GetByID(ctx context.Context, q database.Querier, id int64) (*domain.TimeDeposit, error) {
	row := r.querier(q).QueryRowContext(ctx, "SELECT "+depositColumns+" FROM time_deposits WHERE id = ?", id)
	d, err := scanDeposit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time deposit %d: %w", id, err)
	}
	return d, nil
}

// Deactivate flips an active deposit to inactive. It reports false when the deposit was already inactive.
func (r *Repository) Deactivate(ctx context.Context, q database.Querier, id int64) (bool, error) {
	res, err := r.querier(q).ExecContext(ctx, "UPDATE time_deposits SET is_active = 0 WHERE id = ? AND is_active = 1", id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate time deposit %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// ListByUser returns the user's deposits, newest first
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]domain.TimeDeposit, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+depositColumns+" FROM time_deposits WHERE user_id = ? ORDER BY start_date DESC, id DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time deposits: %w", err)
	}
	defer rows.Close()

	deposits := make([]domain.TimeDeposit, 0)
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time deposit: %w", err)
		}
		deposits = append(deposits, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time deposits: %w", err)
	}
	return deposits, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeposit(row rowScanner) (*domain.TimeDeposit, error) {
	var d domain.TimeDeposit
	var start, end int64
	var action string
	var active int
	if err := row.Scan(&d.ID, &d.UserID, &d.SourceAccountID, &d.Principal, &d.InterestRate, &d.TermMonths,
		&start, &end, &d.MaturityAmount, &action, &active); err != nil {
		return nil, err
	}
	d.StartDate = time.Unix(start, 0).UTC()
	d.EndDate = time.Unix(end, 0).UTC()
	d.MaturityAction = domain.MaturityAction(action)
	d.IsActive = active == 1
	return &d, nil
}
