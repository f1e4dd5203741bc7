package ledger

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
	"github.com/fintrack/fintrack/internal/modules/accounts"
)

const (
	defaultDepositDescription    = "Cash deposit"
	defaultWithdrawalDescription = "Cash withdrawal"
)

// EntryRequest creates or replaces a manual Income/Expense entry
type EntryRequest struct {
	AccountID       int64           `json:"account_id"`
	CategoryID      *int64          `json:"category_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Type            string          `json:"type"`
	TransactionDate *time.Time      `json:"transaction_date,omitempty"`
}

// CashRequest is a cash deposit into or withdrawal from an account
type CashRequest struct {
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// Summary is the income/expense roll-up of a period
type Summary struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpense     decimal.Decimal `json:"total_expense"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	TransactionCount int             `json:"transaction_count"`
}

// Service implements manual ledger operations
type Service struct {
	poster       *Poster
	categories   *CategoryRepository
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new ledger service
func NewService(poster *Poster, categories *CategoryRepository, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		poster:       poster,
		categories:   categories,
		eventManager: eventManager,
		log:          log.With().Str("service", "ledger").Logger(),
	}
}

func (s *Service) db() *sql.DB {
	return s.poster.Accounts().DB()
}

// CreateTransaction records a manual Income or Expense entry and applies it to the account
func (s *Service) CreateTransaction(ctx context.Context, userID int64, req EntryRequest) (*domain.Transaction, error) {
	entry, err := s.validateEntry(ctx, req)
	if err != nil {
		return nil, err
	}
	entry.UserID = userID

	err = database.WithTransactionContext(ctx, s.db(), func(tx *sql.Tx) error {
		acc, err := s.poster.Accounts().LoadUsable(ctx, tx, userID, req.AccountID)
		if err != nil {
			return err
		}
		return s.poster.Post(ctx, tx, acc, entry)
	})
	if err != nil {
		return nil, err
	}

	s.posted(entry)
	return entry, nil
}

// UpdateTransaction replaces a manual entry: the old effect is reversed on the old
// account and the new effect applied on the (possibly different) new account
func (s *Service) UpdateTransaction(ctx context.Context, userID, entryID int64, req EntryRequest) (*domain.Transaction, error) {
	replacement, err := s.validateEntry(ctx, req)
	if err != nil {
		return nil, err
	}

	var entry *domain.Transaction
	err = database.WithTransactionContext(ctx, s.db(), func(tx *sql.Tx) error {
		var err error
		entry, err = s.loadManual(ctx, tx, userID, entryID)
		if err != nil {
			return err
		}
		if entry.Type != domain.TxIncome && entry.Type != domain.TxExpense {
			return domain.InvalidState("only income and expense entries can be edited")
		}

		oldAcc, err := s.poster.Accounts().GetByID(ctx, tx, entry.AccountID)
		if err != nil {
			return err
		}
		if oldAcc == nil {
			return domain.NotFound("account %d not found", entry.AccountID)
		}
		oldAcc.Revert(entry.Type, entry.Amount)

		newAcc := oldAcc
		if req.AccountID != 0 && req.AccountID != entry.AccountID {
			newAcc, err = s.poster.Accounts().LoadUsable(ctx, tx, userID, req.AccountID)
			if err != nil {
				return err
			}
			if newAcc.Currency != oldAcc.Currency {
				return domain.InvalidState("cannot move an entry between %s and %s accounts", oldAcc.Currency, newAcc.Currency)
			}
			if err := s.poster.Accounts().SaveBalance(ctx, tx, oldAcc); err != nil {
				return err
			}
		}

		entry.AccountID = newAcc.ID
		entry.CategoryID = replacement.CategoryID
		entry.Amount = replacement.Amount
		entry.Description = replacement.Description
		entry.Type = replacement.Type
		if req.TransactionDate != nil {
			entry.TransactionDate = replacement.TransactionDate
		}

		newAcc.Apply(entry.Type, entry.Amount)
		if err := s.poster.Accounts().SaveBalance(ctx, tx, newAcc); err != nil {
			return err
		}
		return s.poster.Entries().Update(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.posted(entry)
	return entry, nil
}

// DeleteTransaction removes a manual entry and reverses its balance effect.
// Entries produced by transfers, investments, loans and deposits are part of a
// larger operation and cannot be deleted on their own.
func (s *Service) DeleteTransaction(ctx context.Context, userID, entryID int64) error {
	var entry *domain.Transaction
	err := database.WithTransactionContext(ctx, s.db(), func(tx *sql.Tx) error {
		var err error
		entry, err = s.loadManual(ctx, tx, userID, entryID)
		if err != nil {
			return err
		}
		acc, err := s.poster.Accounts().GetByID(ctx, tx, entry.AccountID)
		if err != nil {
			return err
		}
		if acc == nil {
			return domain.NotFound("account %d not found", entry.AccountID)
		}
		return s.poster.Unpost(ctx, tx, acc, entry)
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("user_id", userID).Int64("entry_id", entryID).Str("type", string(entry.Type)).Msg("Ledger entry deleted")
	s.eventManager.EmitForUser(userID, events.TransactionDeleted, "ledger", map[string]interface{}{
		"transaction_id": entryID,
		"account_id":     entry.AccountID,
	})
	return nil
}

// Deposit records a CashDeposit
func (s *Service) Deposit(ctx context.Context, userID int64, req CashRequest) (*domain.Transaction, error) {
	return s.cash(ctx, userID, req, domain.TxCashDeposit, defaultDepositDescription)
}

// Withdraw records a CashWithdrawal; the account must hold the amount
func (s *Service) Withdraw(ctx context.Context, userID int64, req CashRequest) (*domain.Transaction, error) {
	return s.cash(ctx, userID, req, domain.TxCashWithdrawal, defaultWithdrawalDescription)
}

func (s *Service) cash(ctx context.Context, userID int64, req CashRequest, txType domain.TransactionType, defaultDescription string) (*domain.Transaction, error) {
	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, domain.InvalidState("amount must be greater than zero")
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultDescription
	}

	entry := &domain.Transaction{
		UserID:      userID,
		Amount:      amount,
		Description: description,
		Type:        txType,
		Source:      domain.SourceManual,
	}

	err := database.WithTransactionContext(ctx, s.db(), func(tx *sql.Tx) error {
		acc, err := s.poster.Accounts().LoadUsable(ctx, tx, userID, req.AccountID)
		if err != nil {
			return err
		}
		if !txType.IsCredit() {
			if err := accounts.RequireFunds(acc, amount); err != nil {
				return err
			}
		}
		return s.poster.Post(ctx, tx, acc, entry)
	})
	if err != nil {
		return nil, err
	}

	s.posted(entry)
	return entry, nil
}

// GetTransaction returns one of the user's entries
func (s *Service) GetTransaction(ctx context.Context, userID, entryID int64) (*domain.Transaction, error) {
	entry, err := s.poster.Entries().GetByID(ctx, nil, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.UserID != userID {
		return nil, domain.NotFound("transaction %d not found", entryID)
	}
	return entry, nil
}

// ListTransactions returns the user's entries, newest first
func (s *Service) ListTransactions(ctx context.Context, userID int64, f Filter) ([]domain.Transaction, error) {
	return s.poster.Entries().ListByUser(ctx, userID, f)
}

// MonthlySummary totals manual income and expense for the calendar month containing at (UTC)
func (s *Service) MonthlySummary(ctx context.Context, userID int64, at time.Time) (*Summary, error) {
	at = at.UTC()
	from := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	entries, err := s.poster.Entries().ListByUser(ctx, userID, Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	summary := &Summary{From: from, To: to, TotalIncome: decimal.Zero, TotalExpense: decimal.Zero}
	for _, e := range entries {
		switch e.Type {
		case domain.TxIncome:
			summary.TotalIncome = summary.TotalIncome.Add(e.Amount)
		case domain.TxExpense:
			summary.TotalExpense = summary.TotalExpense.Add(e.Amount)
		}
	}
	summary.NetBalance = summary.TotalIncome.Sub(summary.TotalExpense)
	summary.TransactionCount = len(entries)
	return summary, nil
}

// ListCategories returns the seeded categories
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) validateEntry(ctx context.Context, req EntryRequest) (*domain.Transaction, error) {
	txType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		return nil, err
	}
	if txType != domain.TxIncome && txType != domain.TxExpense {
		return nil, domain.InvalidState("manual entries must be Income or Expense, got %s", txType)
	}
	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, domain.InvalidState("amount must be greater than zero")
	}
	if req.CategoryID != nil {
		ok, err := s.categories.Exists(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.NotFound("category %d not found", *req.CategoryID)
		}
	}

	entry := &domain.Transaction{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Description: strings.TrimSpace(req.Description),
		Type:        txType,
		Source:      domain.SourceManual,
	}
	if req.TransactionDate != nil {
		entry.TransactionDate = req.TransactionDate.UTC().Truncate(time.Second)
	}
	return entry, nil
}

func (s *Service) loadManual(ctx context.Context, q database.Querier, userID, entryID int64) (*domain.Transaction, error) {
	entry, err := s.poster.Entries().GetByID(ctx, q, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, domain.NotFound("transaction %d not found", entryID)
	}
	if entry.UserID != userID {
		return nil, domain.Unauthorized("transaction %d does not belong to the current user", entryID)
	}
	if entry.Source != domain.SourceManual {
		return nil, domain.InvalidState("%s entries created by a %s operation cannot be changed directly", entry.Type, entry.Source)
	}
	return entry, nil
}

func (s *Service) posted(entry *domain.Transaction) {
	s.log.Info().
		Int64("user_id", entry.UserID).
		Int64("account_id", entry.AccountID).
		Str("type", string(entry.Type)).
		Str("amount", entry.Amount.String()).
		Msg("Ledger entry posted")
	s.eventManager.EmitTyped(entry.UserID, "ledger", &events.TransactionPostedData{
		TransactionID: entry.ID,
		AccountID:     entry.AccountID,
		Type:          string(entry.Type),
		Amount:        entry.Amount.String(),
	})
}
