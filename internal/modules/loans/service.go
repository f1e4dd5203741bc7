// Package loans prices amortized loans and disburses their principal into an account.
package loans

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/events"
	"github.com/fintrack/fintrack/internal/modules/ledger"
)

// LoanRequest originates a loan into TargetAccountID
type LoanRequest struct {
	TargetAccountID int64           `json:"target_account_id"`
	LoanType        string          `json:"loan_type"`
	Principal       decimal.Decimal `json:"amount"`
	TermMonths      int             `json:"term_months"`
}

// CalculationRequest is the input of the loan preview
type CalculationRequest struct {
	LoanType   string          `json:"loan_type"`
	Principal  decimal.Decimal `json:"amount"`
	TermMonths int             `json:"term_months"`
}

// Service originates loans
type Service struct {
	repo         *Repository
	poster       *ledger.Poster
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new loan service
func NewService(repo *Repository, poster *ledger.Poster, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		poster:       poster,
		eventManager: eventManager,
		log:          log.With().Str("service", "loans").Logger(),
	}
}

// CalculateLoan previews the rate (as a percentage), payment and total of a loan
func (s *Service) CalculateLoan(req CalculationRequest) (*Quote, error) {
	return Calculate(domain.ParseLoanType(req.LoanType), req.Principal, req.TermMonths)
}

// CreateLoan prices the loan, credits the principal to the target account and
// records the loan together with its disbursement entry
func (s *Service) CreateLoan(ctx context.Context, userID int64, req LoanRequest) (*domain.Loan, error) {
	quote, err := Calculate(domain.ParseLoanType(req.LoanType), req.Principal, req.TermMonths)
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		UserID:          userID,
		TargetAccountID: req.TargetAccountID,
		Type:            quote.Type,
		Principal:       quote.Principal,
		InterestRate:    quote.InterestRate,
		TermMonths:      quote.TermMonths,
		MonthlyPayment:  quote.MonthlyPayment,
		TotalRepayment:  quote.TotalRepayment,
		StartDate:       time.Now().UTC().Truncate(time.Second),
		IsActive:        true,
	}

	err = database.WithTransactionContext(ctx, s.poster.Accounts().DB(), func(tx *sql.Tx) error {
		acc, err := s.poster.Accounts().LoadUsable(ctx, tx, userID, req.TargetAccountID)
		if err != nil {
			return err
		}
		if err := s.repo.Create(ctx, tx, loan); err != nil {
			return err
		}
		return s.poster.Post(ctx, tx, acc, &domain.Transaction{
			UserID:          userID,
			Amount:          loan.Principal,
			Description:     fmt.Sprintf("Loan disbursement - %s, %d months", loan.Type, loan.TermMonths),
			Type:            domain.TxCashDeposit,
			Source:          domain.SourceLoan,
			Reference:       fmt.Sprintf("loan:%d", loan.ID),
			TransactionDate: loan.StartDate,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("loan_id", loan.ID).
		Str("type", string(loan.Type)).
		Str("amount", loan.Principal.String()).
		Str("rate", loan.InterestRate.String()).
		Msg("Loan originated")
	s.eventManager.EmitForUser(userID, events.LoanOriginated, "loans", map[string]interface{}{
		"loan_id":         loan.ID,
		"account_id":      loan.TargetAccountID,
		"amount":          loan.Principal.String(),
		"monthly_payment": loan.MonthlyPayment.String(),
	})

	return loan, nil
}

// ListLoans returns the user's loans, newest first
func (s *Service) ListLoans(ctx context.Context, userID int64) ([]domain.Loan, error) {
	return s.repo.ListByUser(ctx, userID)
}
