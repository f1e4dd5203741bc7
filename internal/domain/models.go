package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the identity data the ledger needs about an account holder
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// FullName returns "First Last"
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Account holds a balance in a single currency
type Account struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Name      string          `json:"name"`
	Type      AccountType     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	IBAN      string          `json:"iban"`
	IsActive  bool            `json:"is_active"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Apply adds the signed balance effect of an entry of type t and amount
func (a *Account) Apply(t TransactionType, amount decimal.Decimal) {
	a.Balance = RoundMoney(a.Balance.Add(t.Effect(amount)))
}

// Revert undoes Apply
func (a *Account) Revert(t TransactionType, amount decimal.Decimal) {
	a.Balance = RoundMoney(a.Balance.Sub(t.Effect(amount)))
}

// Transaction is a single ledger entry. Amount is always a positive magnitude;
// the direction comes from Type.
type Transaction struct {
	ID              int64            `json:"id"`
	AccountID       int64            `json:"account_id"`
	UserID          int64            `json:"user_id"`
	CategoryID      *int64           `json:"category_id,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	Description     string           `json:"description"`
	Type            TransactionType  `json:"type"`
	Source          EntrySource      `json:"source"`
	Reference       string           `json:"reference,omitempty"`
	TransactionDate time.Time        `json:"transaction_date"`
	CreatedAt       time.Time        `json:"created_at"`
	MarketAssetID   *int64           `json:"market_asset_id,omitempty"`
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
}

// Category is a seeded, read-only classification for manual entries
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IconName    string `json:"icon_name"`
	Color       string `json:"color"`
}

// MarketAsset is the shared reference row for a tradable symbol
type MarketAsset struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Type      AssetType `json:"type"`
	Exchange  string    `json:"exchange"`
	Currency  string    `json:"currency"`
	SourceAPI string    `json:"source_api"`
	APISymbol string    `json:"api_symbol"`
}

// TrackedAsset is a user's watch-list entry
type TrackedAsset struct {
	UserID    int64       `json:"user_id"`
	Asset     MarketAsset `json:"asset"`
	SortOrder int         `json:"sort_order"`
	TrackedAt time.Time   `json:"tracked_at"`
}

// Position is a user's open holding of one asset. Quantity is always > 0;
// a liquidated holding has no row at all.
type Position struct {
	ID                      int64           `json:"id"`
	UserID                  int64           `json:"user_id"`
	MarketAssetID           int64           `json:"market_asset_id"`
	Quantity                decimal.Decimal `json:"quantity"`
	AverageCost             decimal.Decimal `json:"average_cost"`
	TotalCostInUserCurrency decimal.Decimal `json:"total_cost_in_user_currency"`
	LastUpdated             time.Time       `json:"last_updated"`
}

// Loan is immutable after origination except for IsActive
type Loan struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	TargetAccountID int64           `json:"target_account_id"`
	Type            LoanType        `json:"type"`
	Principal       decimal.Decimal `json:"principal"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	TermMonths      int             `json:"term_months"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	TotalRepayment  decimal.Decimal `json:"total_repayment"`
	StartDate       time.Time       `json:"start_date"`
	IsActive        bool            `json:"is_active"`
}

// TimeDeposit locks principal from a source account for a fixed term
type TimeDeposit struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	SourceAccountID int64           `json:"source_account_id"`
	Principal       decimal.Decimal `json:"principal"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	TermMonths      int             `json:"term_months"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	MaturityAmount  decimal.Decimal `json:"maturity_amount"`
	MaturityAction  MaturityAction  `json:"maturity_action"`
	IsActive        bool            `json:"is_active"`
}
