package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType tags an account
type AccountType string

const (
	AccountBank       AccountType = "bank"
	AccountCard       AccountType = "card"
	AccountInvestment AccountType = "investment"
	AccountCash       AccountType = "cash"
	AccountOther      AccountType = "other"
)

// ParseAccountType maps a free-form tag onto the closed set; unknown tags become AccountOther
func ParseAccountType(s string) AccountType {
	switch AccountType(strings.ToLower(strings.TrimSpace(s))) {
	case AccountBank:
		return AccountBank
	case AccountCard:
		return AccountCard
	case AccountInvestment:
		return AccountInvestment
	case AccountCash:
		return AccountCash
	default:
		return AccountOther
	}
}

// TransactionType is the closed ledger taxonomy
type TransactionType string

const (
	TxIncome         TransactionType = "Income"
	TxExpense        TransactionType = "Expense"
	TxTransferOut    TransactionType = "TransferOut"
	TxTransferIn     TransactionType = "TransferIn"
	TxWireOut        TransactionType = "WireOut"
	TxWireIn         TransactionType = "WireIn"
	TxInvestmentBuy  TransactionType = "InvestmentBuy"
	TxInvestmentSell TransactionType = "InvestmentSell"
	TxCashDeposit    TransactionType = "CashDeposit"
	TxCashWithdrawal TransactionType = "CashWithdrawal"
)

var transactionTypes = map[TransactionType]bool{
	TxIncome: true, TxExpense: false,
	TxTransferOut: false, TxTransferIn: true,
	TxWireOut: false, TxWireIn: true,
	TxInvestmentBuy: false, TxInvestmentSell: true,
	TxCashDeposit: true, TxCashWithdrawal: false,
}

// Valid reports whether t is one of the known types
func (t TransactionType) Valid() bool {
	_, ok := transactionTypes[t]
	return ok
}

// IsCredit reports whether the type increases the account balance
func (t TransactionType) IsCredit() bool {
	return transactionTypes[t]
}

// Effect returns the signed balance delta for a positive amount
func (t TransactionType) Effect(amount decimal.Decimal) decimal.Decimal {
	if t.IsCredit() {
		return amount
	}
	return amount.Neg()
}

// ParseTransactionType accepts the canonical names case-insensitively
func ParseTransactionType(s string) (TransactionType, error) {
	for t := range transactionTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", InvalidState("unknown transaction type %q", s)
}

// EntrySource records which operation produced a ledger entry
type EntrySource string

const (
	SourceManual     EntrySource = "manual"
	SourceTransfer   EntrySource = "transfer"
	SourceWire       EntrySource = "wire"
	SourceInvestment EntrySource = "investment"
	SourceLoan       EntrySource = "loan"
	SourceDeposit    EntrySource = "deposit"
)

// AssetType classifies a market asset; it also drives price-oracle routing
type AssetType string

const (
	AssetStock    AssetType = "Stock"
	AssetCurrency AssetType = "Currency"
	AssetCrypto   AssetType = "Crypto"
	AssetIndex    AssetType = "Index"
	AssetFund     AssetType = "Fund"
)

// ParseAssetType accepts the canonical names case-insensitively
func ParseAssetType(s string) (AssetType, error) {
	for _, t := range []AssetType{AssetStock, AssetCurrency, AssetCrypto, AssetIndex, AssetFund} {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", InvalidState("unknown asset type %q", s)
}

// TradeDirection is the side of an investment transaction
type TradeDirection string

const (
	Buy  TradeDirection = "Buy"
	Sell TradeDirection = "Sell"
)

// ParseTradeDirection accepts "buy"/"sell" case-insensitively
func ParseTradeDirection(s string) (TradeDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	}
	return "", InvalidState("unknown trade direction %q", s)
}

// LoanType keys the loan rate table
type LoanType string

const (
	LoanMortgage LoanType = "Mortgage"
	LoanAuto     LoanType = "Auto"
	LoanPersonal LoanType = "Personal"
)

// ParseLoanType accepts English and Turkish product names ("Konut Kredisi", "Taşıt Kredisi").
// Unknown names fall back to LoanPersonal.
func ParseLoanType(s string) LoanType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "mortgage", strings.HasPrefix(s, "konut"):
		return LoanMortgage
	case s == "auto", strings.HasPrefix(s, "taşıt"), strings.HasPrefix(s, "taşit"), strings.HasPrefix(s, "tasit"):
		return LoanAuto
	default:
		return LoanPersonal
	}
}

// MaturityAction says what should happen to a deposit at its end date.
// It is recorded only; maturity is settled manually.
type MaturityAction string

const (
	CloseAndTransfer MaturityAction = "CloseAndTransfer"
	RenewPrincipal   MaturityAction = "RenewPrincipal"
	RenewAll         MaturityAction = "RenewAll"
)

// ParseMaturityAction defaults to CloseAndTransfer for an empty value
func ParseMaturityAction(s string) (MaturityAction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CloseAndTransfer, nil
	}
	for _, a := range []MaturityAction{CloseAndTransfer, RenewPrincipal, RenewAll} {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	return "", InvalidState("unknown maturity action %q", s)
}
