// Package deposits opens fixed-term time deposits from an account and settles
// their early closure. Maturity is never processed automatically.
package deposits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/events"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/ledger"
)

// DepositRequest opens a deposit. A positive AnnualRate (fraction) overrides the policy-derived rate.
type DepositRequest struct {
	SourceAccountID int64           `json:"source_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	TermMonths      int             `json:"term_months"`
	AnnualRate      decimal.Decimal `json:"annual_interest_rate"`
	MaturityAction  string          `json:"maturity_action"`
}

// CalculationRequest is the input of the deposit preview
type CalculationRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"term_months"`
	AnnualRate decimal.Decimal `json:"annual_interest_rate"`
}

// Service implements the deposit engine
type Service struct {
	repo         *Repository
	poster       *ledger.Poster
	rates        domain.PolicyRateProvider
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new deposit service
func NewService(repo *Repository, poster *ledger.Poster, rates domain.PolicyRateProvider, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		poster:       poster,
		rates:        rates,
		eventManager: eventManager,
		log:          log.With().Str("service", "deposits").Logger(),
	}
}

// CalculateDeposit previews rate, interest, maturity amount and end date
func (s *Service) CalculateDeposit(ctx context.Context, req CalculationRequest) (*Preview, error) {
	amount := domain.RoundMoney(req.Amount)
	if err := validate(amount, req.TermMonths); err != nil {
		return nil, err
	}
	rate, err := s.annualRate(ctx, req.AnnualRate, req.TermMonths)
	if err != nil {
		return nil, err
	}
	preview := Price(amount, rate, req.TermMonths, time.Now().UTC().Truncate(time.Second))
	return &preview, nil
}

// CreateTimeDeposit debits the source account and records the deposit
func (s *Service) CreateTimeDeposit(ctx context.Context, userID int64, req DepositRequest) (*domain.TimeDeposit, error) {
	amount := domain.RoundMoney(req.Amount)
	if err := validate(amount, req.TermMonths); err != nil {
		return nil, err
	}
	action, err := domain.ParseMaturityAction(req.MaturityAction)
	if err != nil {
		return nil, err
	}
	rate, err := s.annualRate(ctx, req.AnnualRate, req.TermMonths)
	if err != nil {
		return nil, err
	}

	preview := Price(amount, rate, req.TermMonths, time.Now().UTC().Truncate(time.Second))
	deposit := &domain.TimeDeposit{
		UserID:          userID,
		SourceAccountID: req.SourceAccountID,
		Principal:       amount,
		InterestRate:    rate,
		TermMonths:      req.TermMonths,
		StartDate:       preview.StartDate,
		EndDate:         preview.EndDate,
		MaturityAmount:  preview.MaturityAmount,
		MaturityAction:  action,
	}

	err = database.WithTransactionContext(ctx, s.poster.Accounts().DB(), func(tx *sql.Tx) error {
		acc, err := s.poster.Accounts().LoadUsable(ctx, tx, userID, req.SourceAccountID)
		if err != nil {
			return err
		}
		if err := accounts.RequireFunds(acc, amount); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, tx, deposit); err != nil {
			return err
		}
		return s.poster.Post(ctx, tx, acc, &domain.Transaction{
			UserID:          userID,
			Amount:          amount,
			Description:     fmt.Sprintf("Time deposit - %d months @ %s%%", deposit.TermMonths, domain.Percent(rate).StringFixed(2)),
			Type:            domain.TxTransferOut,
			Source:          domain.SourceDeposit,
			Reference:       depositReference(deposit.ID),
			TransactionDate: deposit.StartDate,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("deposit_id", deposit.ID).
		Str("amount", amount.String()).
		Str("rate", rate.String()).
		Int("term_months", deposit.TermMonths).
		Msg("Time deposit opened")
	s.eventManager.EmitForUser(userID, events.DepositOpened, "deposits", map[string]interface{}{
		"deposit_id":      deposit.ID,
		"account_id":      deposit.SourceAccountID,
		"amount":          amount.String(),
		"maturity_amount": deposit.MaturityAmount.String(),
	})

	return deposit, nil
}

// CloseDepositEarly returns exactly the principal to the source account and deactivates the deposit.
// Accrued interest is forfeited.
func (s *Service) CloseDepositEarly(ctx context.Context, userID, depositID int64) (*domain.TimeDeposit, error) {
	var deposit *domain.TimeDeposit
	err := database.WithTransactionContext(ctx, s.poster.Accounts().DB(), func(tx *sql.Tx) error {
		var err error
		deposit, err = s.repo.GetByID(ctx, tx, depositID)
		if err != nil {
			return err
		}
		if deposit == nil || deposit.UserID != userID {
			return domain.NotFound("time deposit %d not found", depositID)
		}
		if !deposit.IsActive {
			return domain.InvalidState("time deposit %d is already closed", depositID)
		}

		acc, err := s.poster.Accounts().GetByID(ctx, tx, deposit.SourceAccountID)
		if err != nil {
			return err
		}
		if acc == nil {
			return domain.InvalidState("source account of time deposit %d not found", depositID)
		}

		closed, err := s.repo.Deactivate(ctx, tx, deposit.ID)
		if err != nil {
			return err
		}
		if !closed {
			return domain.InvalidState("time deposit %d is already closed", depositID)
		}
		deposit.IsActive = false

		return s.poster.Post(ctx, tx, acc, &domain.Transaction{
			UserID:      userID,
			Amount:      deposit.Principal,
			Description: fmt.Sprintf("Time deposit %d closed early", deposit.ID),
			Type:        domain.TxTransferIn,
			Source:      domain.SourceDeposit,
			Reference:   depositReference(deposit.ID),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("deposit_id", deposit.ID).
		Str("amount", deposit.Principal.String()).
		Msg("Time deposit closed early")
	s.eventManager.EmitForUser(userID, events.DepositClosed, "deposits", map[string]interface{}{
		"deposit_id": deposit.ID,
		"account_id": deposit.SourceAccountID,
		"amount":     deposit.Principal.String(),
	})

	return deposit, nil
}

// ListDeposits returns the user's deposits, newest first
func (s *Service) ListDeposits(ctx context.Context, userID int64) ([]domain.TimeDeposit, error) {
	return s.repo.ListByUser(ctx, userID)
}

// annualRate returns the override when positive, else the rate derived from the policy feed
func (s *Service) annualRate(ctx context.Context, override decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if override.IsPositive() {
		if err := validateOverride(override); err != nil {
			return decimal.Zero, err
		}
		return domain.RoundRate(override), nil
	}
	if s.rates == nil {
		return decimal.Zero, domain.ExternalUnavailable(nil, "no policy rate source configured")
	}

	policy, err := s.rates.PolicyRate(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrExternalUnavailable) {
			return decimal.Zero, err
		}
		return decimal.Zero, domain.ExternalUnavailable(err, "policy rate unavailable")
	}
	rate := RateFromPolicy(policy, termMonths)
	if !rate.IsPositive() {
		return decimal.Zero, domain.InvalidState("no positive deposit rate for a %d month term at policy rate %s%%", termMonths, policy)
	}
	return rate, nil
}

func depositReference(id int64) string {
	return fmt.Sprintf("deposit:%d", id)
}
