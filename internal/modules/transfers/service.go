// Package transfers moves money between accounts: between two accounts of the
// same user, and as wires to another user's account resolved by IBAN.
package transfers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/events"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	"github.com/fintrack/fintrack/internal/modules/users"
)

const maskRune = '*'

// TransferRequest moves money between two accounts of the same user
type TransferRequest struct {
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// WireRequest moves money to another user's account
type WireRequest struct {
	FromAccountID int64           `json:"from_account_id"`
	RecipientIBAN string          `json:"recipient_iban"`
	RecipientName string          `json:"recipient_name"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
}

// Result is the pair of ledger legs written by a transfer
type Result struct {
	Reference string              `json:"reference"`
	Outgoing  *domain.Transaction `json:"outgoing"`
	Incoming  *domain.Transaction `json:"incoming"`
}

// Recipient is what a sender may see about the owner of an IBAN
type Recipient struct {
	IBAN       string `json:"iban"`
	MaskedName string `json:"masked_name"`
	Currency   string `json:"currency"`
}

// Service implements the transfer engine
type Service struct {
	poster       *ledger.Poster
	users        *users.Repository
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new transfer service
func NewService(poster *ledger.Poster, userRepo *users.Repository, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		poster:       poster,
		users:        userRepo,
		eventManager: eventManager,
		log:          log.With().Str("service", "transfers").Logger(),
	}
}

// TransferBetweenOwnAccounts debits one of the user's accounts and credits another.
// Both legs and both balances commit together or not at all.
func (s *Service) TransferBetweenOwnAccounts(ctx context.Context, userID int64, req TransferRequest) (*Result, error) {
	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, domain.InvalidState("transfer amount must be greater than zero")
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, domain.InvalidState("source and target account must differ")
	}

	result := &Result{Reference: uuid.NewString()}
	var from, to *domain.Account

	err := database.WithTransactionContext(ctx, s.poster.Accounts().DB(), func(tx *sql.Tx) error {
		var err error
		from, err = s.poster.Accounts().LoadUsable(ctx, tx, userID, req.FromAccountID)
		if err != nil {
			return err
		}
		to, err = s.poster.Accounts().LoadUsable(ctx, tx, userID, req.ToAccountID)
		if err != nil {
			return err
		}
		if from.Currency != to.Currency {
			return domain.InvalidState("currency mismatch: cannot transfer from %s to %s", from.Currency, to.Currency)
		}
		if err := accounts.RequireFunds(from, amount); err != nil {
			return err
		}

		description := strings.TrimSpace(req.Description)
		result.Outgoing = &domain.Transaction{
			UserID:      userID,
			Amount:      amount,
			Description: legDescription("to "+to.Name, description),
			Type:        domain.TxTransferOut,
			Source:      domain.SourceTransfer,
			Reference:   result.Reference,
		}
		result.Incoming = &domain.Transaction{
			UserID:      userID,
			Amount:      amount,
			Description: legDescription("from "+from.Name, description),
			Type:        domain.TxTransferIn,
			Source:      domain.SourceTransfer,
			Reference:   result.Reference,
		}

		if err := s.poster.Post(ctx, tx, from, result.Outgoing); err != nil {
			return err
		}
		return s.poster.Post(ctx, tx, to, result.Incoming)
	})
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Int64("from", req.FromAccountID).Int64("to", req.ToAccountID).Msg("Transfer rejected")
		return nil, err
	}

	s.log.Info().
		Str("reference", result.Reference).
		Int64("user_id", userID).
		Int64("from", from.ID).
		Int64("to", to.ID).
		Str("amount", amount.String()).
		Str("currency", from.Currency).
		Msg("Transfer completed")
	s.eventManager.EmitTyped(userID, "transfers", &events.TransferCompletedData{
		Reference:     result.Reference,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount.String(),
		Currency:      from.Currency,
	})

	return result, nil
}

// TransferToAnotherUser wires money to the active account carrying RecipientIBAN.
// The incoming leg is owned by the recipient.
func (s *Service) TransferToAnotherUser(ctx context.Context, userID int64, req WireRequest) (*Result, error) {
	amount := domain.RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, domain.InvalidState("transfer amount must be greater than zero")
	}
	iban := accounts.NormalizeIBAN(req.RecipientIBAN)
	if iban == "" {
		return nil, domain.InvalidState("recipient IBAN is required")
	}

	result := &Result{Reference: uuid.NewString()}
	var from, to *domain.Account

	err := database.WithTransactionContext(ctx, s.poster.Accounts().DB(), func(tx *sql.Tx) error {
		var err error
		from, err = s.poster.Accounts().LoadUsable(ctx, tx, userID, req.FromAccountID)
		if err != nil {
			return err
		}
		to, err = s.poster.Accounts().GetActiveByIBAN(ctx, tx, iban)
		if err != nil {
			return err
		}
		if to == nil {
			return domain.NotFound("no active account with IBAN %s", iban)
		}
		if to.UserID == userID {
			return domain.InvalidState("recipient account belongs to you, use a transfer between your own accounts")
		}

		recipient, err := s.users.GetByID(ctx, tx, to.UserID)
		if err != nil {
			return err
		}
		if recipient == nil {
			return domain.NotFound("recipient of IBAN %s not found", iban)
		}
		if !strings.EqualFold(strings.TrimSpace(req.RecipientName), recipient.FullName()) {
			return domain.InvalidState("recipient name does not match the IBAN holder")
		}
		sender, err := s.users.GetByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if sender == nil {
			return domain.NotFound("user %d not found", userID)
		}

		if from.Currency != to.Currency {
			return domain.InvalidState("currency mismatch: cannot wire from %s to %s", from.Currency, to.Currency)
		}
		if err := accounts.RequireFunds(from, amount); err != nil {
			return err
		}

		description := strings.TrimSpace(req.Description)
		result.Outgoing = &domain.Transaction{
			UserID:      userID,
			Amount:      amount,
			Description: legDescription(fmt.Sprintf("Wire to %s (%s)", recipient.FullName(), to.IBAN), description),
			Type:        domain.TxWireOut,
			Source:      domain.SourceWire,
			Reference:   result.Reference,
		}
		result.Incoming = &domain.Transaction{
			UserID:      to.UserID,
			Amount:      amount,
			Description: legDescription("Wire from "+sender.FullName(), description),
			Type:        domain.TxWireIn,
			Source:      domain.SourceWire,
			Reference:   result.Reference,
		}

		if err := s.poster.Post(ctx, tx, from, result.Outgoing); err != nil {
			return err
		}
		return s.poster.Post(ctx, tx, to, result.Incoming)
	})
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Int64("from", req.FromAccountID).Msg("Wire rejected")
		return nil, err
	}

	s.log.Info().
		Str("reference", result.Reference).
		Int64("user_id", userID).
		Int64("recipient_user_id", to.UserID).
		Str("amount", amount.String()).
		Str("currency", from.Currency).
		Msg("Wire completed")
	s.eventManager.EmitTyped(userID, "transfers", &events.TransferCompletedData{
		Reference:     result.Reference,
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        amount.String(),
		Currency:      from.Currency,
		Wire:          true,
	})
	s.eventManager.EmitTyped(to.UserID, "transfers", &events.WireReceivedData{
		Reference: result.Reference,
		AccountID: to.ID,
		Amount:    amount.String(),
		Currency:  to.Currency,
	})

	return result, nil
}

// VerifyRecipientByIBAN returns the masked holder name of an active IBAN
func (s *Service) VerifyRecipientByIBAN(ctx context.Context, iban string) (*Recipient, error) {
	iban = accounts.NormalizeIBAN(iban)
	acc, err := s.poster.Accounts().GetActiveByIBAN(ctx, nil, iban)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, domain.NotFound("no active account with IBAN %s", iban)
	}
	holder, err := s.users.GetByID(ctx, nil, acc.UserID)
	if err != nil {
		return nil, err
	}
	if holder == nil {
		return nil, domain.NotFound("no active account with IBAN %s", iban)
	}
	return &Recipient{
		IBAN:       acc.IBAN,
		MaskedName: MaskName(holder.FirstName) + " " + MaskName(holder.LastName),
		Currency:   acc.Currency,
	}, nil
}

// MaskName keeps the first two characters of name and masks the rest
func MaskName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) <= 2 {
		return string(runes)
	}
	return string(runes[:2]) + strings.Repeat(string(maskRune), len(runes)-2)
}

func legDescription(prefix, description string) string {
	if description == "" {
		return prefix
	}
	return prefix + " - " + description
}
