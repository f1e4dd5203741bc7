package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_KindMatching(t *testing.T) {
	err := InvalidState("insufficient balance")
	wrapped := fmt.Errorf("transaction failed: %w", err)

	assert.True(t, errors.Is(wrapped, ErrInvalidState))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "insufficient balance", Message(wrapped))
	assert.Equal(t, "", Message(errors.New("boom")))
}

func TestError_ExternalUnavailableKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := ExternalUnavailable(cause, "conversion rate %s unavailable", "USD/TRY")

	assert.True(t, errors.Is(err, ErrExternalUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "USD/TRY")
}

func TestTransactionType_Effect(t *testing.T) {
	ten := decimal.NewFromInt(10)

	credits := []TransactionType{TxIncome, TxTransferIn, TxWireIn, TxInvestmentSell, TxCashDeposit}
	debits := []TransactionType{TxExpense, TxTransferOut, TxWireOut, TxInvestmentBuy, TxCashWithdrawal}

	for _, tt := range credits {
		assert.True(t, tt.Effect(ten).Equal(ten), string(tt))
	}
	for _, tt := range debits {
		assert.True(t, tt.Effect(ten).Equal(ten.Neg()), string(tt))
	}
}

func TestAccount_ApplyRevert(t *testing.T) {
	acc := &Account{Balance: decimal.RequireFromString("100.00")}

	acc.Apply(TxExpense, decimal.RequireFromString("30.55"))
	assert.Equal(t, "69.45", acc.Balance.StringFixed(2))

	acc.Apply(TxIncome, decimal.RequireFromString("0.005"))
	assert.Equal(t, "69.46", acc.Balance.StringFixed(2))

	acc.Revert(TxIncome, decimal.RequireFromString("0.01"))
	acc.Revert(TxExpense, decimal.RequireFromString("30.55"))
	assert.Equal(t, "100.00", acc.Balance.StringFixed(2))
}

func TestParsers(t *testing.T) {
	tt, err := ParseTransactionType("income")
	require.NoError(t, err)
	assert.Equal(t, TxIncome, tt)

	_, err = ParseTransactionType("gift")
	assert.True(t, errors.Is(err, ErrInvalidState))

	assert.Equal(t, LoanMortgage, ParseLoanType("Konut"))
	assert.Equal(t, LoanAuto, ParseLoanType("Taşıt"))
	assert.Equal(t, LoanAuto, ParseLoanType("TAŞIT KREDİSİ"))
	assert.Equal(t, LoanMortgage, ParseLoanType("Konut Kredisi"))
	assert.Equal(t, LoanPersonal, ParseLoanType("İhtiyaç"))
	assert.Equal(t, LoanPersonal, ParseLoanType(""))

	action, err := ParseMaturityAction("")
	require.NoError(t, err)
	assert.Equal(t, CloseAndTransfer, action)

	dir, err := ParseTradeDirection("SELL")
	require.NoError(t, err)
	assert.Equal(t, Sell, dir)

	assert.Equal(t, AccountBank, ParseAccountType("Bank"))
	assert.Equal(t, AccountOther, ParseAccountType("wallet"))
}

func TestNormalizeCurrency(t *testing.T) {
	code, err := NormalizeCurrency(" try ")
	require.NoError(t, err)
	assert.Equal(t, "TRY", code)

	_, err = NormalizeCurrency("XXQ")
	assert.True(t, errors.Is(err, ErrInvalidState))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1,250.00", FormatAmount(decimal.RequireFromString("1250"), "USD"))
}

func TestConversionQuery(t *testing.T) {
	q := ConversionQuery("USD", "TRY")
	assert.Equal(t, "USD/TRY", q.Symbol)
	assert.Equal(t, AssetCurrency, q.AssetType)
}
