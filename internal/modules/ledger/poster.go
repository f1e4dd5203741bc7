package ledger

import (
	"context"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/accounts"
)

// Poster applies an entry's balance effect to its account and records the entry.
// It must be called inside the caller's transaction so balance and entry commit together.
type Poster struct {
	accounts *accounts.Repository
	entries  *Repository
}

// NewPoster creates a new Poster
func NewPoster(accountRepo *accounts.Repository, entries *Repository) *Poster {
	return &Poster{accounts: accountRepo, entries: entries}
}

// Post credits or debits acc according to e.Type and inserts e against acc
func (p *Poster) Post(ctx context.Context, q database.Querier, acc *domain.Account, e *domain.Transaction) error {
	e.Amount = domain.RoundMoney(e.Amount)
	if !e.Amount.IsPositive() {
		return domain.InvalidState("amount must be greater than zero")
	}
	acc.Apply(e.Type, e.Amount)
	if err := p.accounts.SaveBalance(ctx, q, acc); err != nil {
		return err
	}
	e.AccountID = acc.ID
	return p.entries.Insert(ctx, q, e)
}

// Unpost reverses the balance effect of e on acc and deletes e
func (p *Poster) Unpost(ctx context.Context, q database.Querier, acc *domain.Account, e *domain.Transaction) error {
	acc.Revert(e.Type, e.Amount)
	if err := p.accounts.SaveBalance(ctx, q, acc); err != nil {
		return err
	}
	return p.entries.Delete(ctx, q, e.ID)
}

// Entries exposes the entry repository
func (p *Poster) Entries() *Repository {
	return p.entries
}

// Accounts exposes the account repository
func (p *Poster) Accounts() *accounts.Repository {
	return p.accounts
}
