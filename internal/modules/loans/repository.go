package loans

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
)

// Repository handles loan database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new loan repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "loans").Logger(),
	}
}

// Create inserts a loan
func (r *Repository) Create(ctx context.Context, q database.Querier, l *domain.Loan) error {
	if q == nil {
		q = r.db
	}
	res, err := q.ExecContext(ctx, `
		INSERT INTO loans (user_id, target_account_id, loan_type, principal, interest_rate, term_months,
			monthly_payment, total_repayment, start_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.UserID, l.TargetAccountID, string(l.Type), l.Principal, l.InterestRate, l.TermMonths,
		l.MonthlyPayment, l.TotalRepayment, l.StartDate.Unix(), boolToInt(l.IsActive))
	if err != nil {
		return fmt.Errorf("failed to insert loan: %w", err)
	}
	l.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read loan id: %w", err)
	}
	return nil
}

// ListByUser returns the user's loans, newest first
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]domain.Loan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, target_account_id, loan_type, principal, interest_rate, term_months,
			monthly_payment, total_repayment, start_date, is_active
		FROM loans WHERE user_id = ?
		ORDER BY start_date DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	loans := make([]domain.Loan, 0)
	for rows.Next() {
		var l domain.Loan
		var loanType string
		var start int64
		var active int
		if err := rows.Scan(&l.ID, &l.UserID, &l.TargetAccountID, &loanType, &l.Principal, &l.InterestRate,
			&l.TermMonths, &l.MonthlyPayment, &l.TotalRepayment, &start, &active); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		l.Type = domain.LoanType(loanType)
		l.StartDate = time.Unix(start, 0).UTC()
		l.IsActive = active == 1
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}
	return loans, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
