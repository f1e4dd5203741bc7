package accounts

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/events"
)

// EntryWriter records ledger entries. Implemented by the ledger repository.
type EntryWriter interface {
	Insert(ctx context.Context, q database.Querier, entry *domain.Transaction) error
}

// CreateAccountRequest is the input of CreateAccount
type CreateAccountRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"account_type"`
	Currency       string          `json:"currency"`
	OpeningBalance decimal.Decimal `json:"balance"`
}

// UpdateAccountRequest changes presentation fields only; balance and currency
// are moved by ledger operations, never edited directly
type UpdateAccountRequest struct {
	Name *string `json:"name,omitempty"`
	Type *string `json:"account_type,omitempty"`
}

// Service implements account lifecycle operations
type Service struct {
	repo         *Repository
	entries      EntryWriter
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new account service
func NewService(repo *Repository, entries EntryWriter, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		entries:      entries,
		eventManager: eventManager,
		log:          log.With().Str("service", "accounts").Logger(),
	}
}

// CreateAccount opens an account. A positive opening balance is recorded as a CashDeposit entry.
func (s *Service) CreateAccount(ctx context.Context, userID int64, req CreateAccountRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.InvalidState("account name is required")
	}
	currency, err := domain.NormalizeCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	opening := domain.RoundMoney(req.OpeningBalance)
	if opening.IsNegative() {
		return nil, domain.InvalidState("opening balance cannot be negative")
	}

	acc := &domain.Account{
		UserID:   userID,
		Name:     name,
		Type:     domain.ParseAccountType(req.Type),
		Balance:  opening,
		Currency: currency,
	}

	err = database.WithTransactionContext(ctx, s.repo.DB(), func(tx *sql.Tx) error {
		if err := s.repo.Create(ctx, tx, acc); err != nil {
			return err
		}
		if !opening.IsPositive() {
			return nil
		}
		now := time.Now().UTC()
		return s.entries.Insert(ctx, tx, &domain.Transaction{
			AccountID:       acc.ID,
			UserID:          userID,
			Amount:          opening,
			Description:     "Opening balance",
			Type:            domain.TxCashDeposit,
			Source:          domain.SourceManual,
			TransactionDate: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Int64("account_id", acc.ID).
		Str("currency", acc.Currency).
		Bool("has_iban", acc.IBAN != "").
		Msg("Account created")
	s.eventManager.EmitForUser(userID, events.AccountCreated, "accounts", map[string]interface{}{
		"account_id": acc.ID,
		"currency":   acc.Currency,
	})

	return acc, nil
}

// GetAccount returns an account owned by userID, active or not
func (s *Service) GetAccount(ctx context.Context, userID, accountID int64) (*domain.Account, error) {
	acc, err := s.repo.GetByID(ctx, nil, accountID)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.UserID != userID {
		return nil, domain.NotFound("account %d not found", accountID)
	}
	return acc, nil
}

// ListAccounts returns the user's active accounts
func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]domain.Account, error) {
	return s.repo.ListByUser(ctx, userID, false)
}

// UpdateAccount renames or re-tags an account
func (s *Service) UpdateAccount(ctx context.Context, userID, accountID int64, req UpdateAccountRequest) (*domain.Account, error) {
	var acc *domain.Account
	err := database.WithTransactionContext(ctx, s.repo.DB(), func(tx *sql.Tx) error {
		var err error
		acc, err = s.repo.GetByID(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if err := RequireUsable(acc, userID, accountID); err != nil {
			return err
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.InvalidState("account name is required")
			}
			acc.Name = name
		}
		if req.Type != nil {
			newType := domain.ParseAccountType(*req.Type)
			if newType == domain.AccountBank && acc.IBAN == "" {
				return domain.InvalidState("an existing account cannot be converted to a bank account")
			}
			acc.Type = newType
		}
		return s.repo.SaveDetails(ctx, tx, acc)
	})
	if err != nil {
		return nil, err
	}

	s.eventManager.EmitForUser(userID, events.AccountUpdated, "accounts", map[string]interface{}{"account_id": acc.ID})
	return acc, nil
}

// DeleteAccount soft-deletes an account; its balance and entries are kept
func (s *Service) DeleteAccount(ctx context.Context, userID, accountID int64) error {
	err := database.WithTransactionContext(ctx, s.repo.DB(), func(tx *sql.Tx) error {
		acc, err := s.repo.GetByID(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if err := RequireUsable(acc, userID, accountID); err != nil {
			return err
		}
		return s.repo.Deactivate(ctx, tx, acc)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("user_id", userID).Int64("account_id", accountID).Msg("Account deactivated")
	s.eventManager.EmitForUser(userID, events.AccountClosed, "accounts", map[string]interface{}{"account_id": accountID})
	return nil
}

// RequireUsable checks that acc exists, is active and belongs to userID.
// Missing or inactive accounts are NotFound; someone else's account is Unauthorized.
func RequireUsable(acc *domain.Account, userID, accountID int64) error {
	if acc == nil || !acc.IsActive {
		return domain.NotFound("account %d not found or inactive", accountID)
	}
	if acc.UserID != userID {
		return domain.Unauthorized("account %d does not belong to the current user", accountID)
	}
	return nil
}

// RequireFunds checks acc.Balance >= amount
func RequireFunds(acc *domain.Account, amount decimal.Decimal) error {
	if acc.Balance.LessThan(amount) {
		return domain.InvalidState("insufficient balance: available %s %s, required %s %s",
			acc.Balance.StringFixed(domain.MoneyPlaces), acc.Currency,
			amount.StringFixed(domain.MoneyPlaces), acc.Currency)
	}
	return nil
}

// LoadUsable reads an account inside q and applies RequireUsable
func (r *Repository) LoadUsable(ctx context.Context, q database.Querier, userID, accountID int64) (*domain.Account, error) {
	acc, err := r.GetByID(ctx, q, accountID)
	if err != nil {
		return nil, err
	}
	if err := RequireUsable(acc, userID, accountID); err != nil {
		return nil, err
	}
	return acc, nil
}
