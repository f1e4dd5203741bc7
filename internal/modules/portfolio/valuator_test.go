package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/investments"
	testutil "github.com/fintrack/fintrack/internal/testing"
)

type staticHoldings []investments.Holding

func (s staticHoldings) ListHoldings(context.Context, int64) ([]investments.Holding, error) {
	return s, nil
}

type failingHoldings struct{}

func (failingHoldings) ListHoldings(context.Context, int64) ([]investments.Holding, error) {
	return nil, errors.New("database is locked")
}

func holding(symbol, currency, quantity, totalCost string) investments.Holding {
	return investments.Holding{
		Position: domain.Position{
			Quantity:                decimal.RequireFromString(quantity),
			TotalCostInUserCurrency: decimal.RequireFromString(totalCost),
		},
		Asset: domain.MarketAsset{Symbol: symbol, Name: symbol, Type: domain.AssetStock, Currency: currency, APISymbol: symbol},
	}
}

func home(code string) func() string {
	return func() string { return code }
}

func TestSummary_ValuesAndSortsDescending(t *testing.T) {
	oracle := testutil.NewFakeOracle().
		SetPrice("THYAO", "300", "TRY").
		SetPrice("AAPL", "200", "USD").
		SetPrice("USD/TRY", "30", "TRY")

	v := NewValuator(staticHoldings{
		holding("THYAO", "TRY", "10", "2500"),
		holding("AAPL", "USD", "2", "9000"),
	}, oracle, home("TRY"), 2, zerolog.Nop())

	summary, err := v.Summary(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summary.Positions, 2)
	assert.False(t, summary.Degraded)

	aapl := summary.Positions[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, "6000", aapl.CurrentPrice.String())
	assert.Equal(t, "12000", aapl.CurrentValue.String())
	assert.Equal(t, "4500", aapl.AverageCost.String())
	assert.Equal(t, "3000", aapl.ProfitLoss.String())
	assert.Equal(t, "33.33", aapl.ProfitLossPercent.StringFixed(2))
	assert.Equal(t, "200", aapl.QuotePrice.String())
	assert.Equal(t, "USD", aapl.QuoteCurrency)

	thy := summary.Positions[1]
	assert.Equal(t, "3000", thy.CurrentValue.String())
	assert.Equal(t, "500", thy.ProfitLoss.String())
	assert.Equal(t, "20", thy.ProfitLossPercent.String())

	assert.Equal(t, "15000", summary.TotalValue.String())
	assert.Equal(t, "11500", summary.TotalCost.String())
	assert.Equal(t, "3500", summary.TotalProfitLoss.String())
	assert.Equal(t, "30.43", summary.TotalProfitLossPercent.StringFixed(2))
	assert.Equal(t, 1, oracle.Calls("USD/TRY"))
}

func TestSummary_DegradesSinglePosition(t *testing.T) {
	oracle := testutil.NewFakeOracle().
		SetPrice("THYAO", "300", "TRY").
		SetPrice("AAPL", "200", "USD").
		SetError("BTC", domain.ExternalUnavailable(nil, "timeout"))

	v := NewValuator(staticHoldings{
		holding("THYAO", "TRY", "10", "2500"),
		holding("AAPL", "USD", "2", "9000"),
		holding("BTC", "USD", "0.5", "1000"),
	}, oracle, home("TRY"), 1, zerolog.Nop())

	summary, err := v.Summary(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, summary.Positions, 3)
	assert.True(t, summary.Degraded)

	assert.Equal(t, "THYAO", summary.Positions[0].Symbol)
	assert.False(t, summary.Positions[0].Degraded)

	for _, pv := range summary.Positions[1:] {
		assert.True(t, pv.Degraded, pv.Symbol)
		assert.NotEmpty(t, pv.DegradedReason)
		assert.True(t, pv.CurrentValue.IsZero())
		assert.True(t, pv.ProfitLoss.Equal(pv.TotalCost.Neg()))
	}

	assert.Equal(t, "3000", summary.TotalValue.String())
	assert.Equal(t, "12500", summary.TotalCost.String())
}

func TestSummary_QuoteKeptBesideHomePrice(t *testing.T) {
	oracle := testutil.NewFakeOracle().
		SetPrice("THYAO", "300", "TRY").
		SetPrice("TRY/USD", "0.03", "USD")

	v := NewValuator(staticHoldings{holding("THYAO", "TRY", "10", "80")}, oracle, home("USD"), 1, zerolog.Nop())
	summary, err := v.Summary(context.Background(), 1)
	require.NoError(t, err)

	raw, err := json.Marshal(summary.Positions[0])
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))

	assert.Equal(t, "300", fields["quote_price"])
	assert.Equal(t, "TRY", fields["quote_currency"])
	assert.Equal(t, "9", fields["current_price"])
	assert.Equal(t, "90", fields["current_value"])
	assert.Equal(t, "USD", summary.HomeCurrency)
	assert.NotContains(t, fields, "price_currency")
}

func TestSummary_ZeroCostGuard(t *testing.T) {
	oracle := testutil.NewFakeOracle().SetPrice("GIFT", "10", "TRY")
	v := NewValuator(staticHoldings{holding("GIFT", "TRY", "3", "0")}, oracle, home("TRY"), 0, zerolog.Nop())

	summary, err := v.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, summary.Positions[0].ProfitLossPercent.IsZero())
	assert.True(t, summary.TotalProfitLossPercent.IsZero())
	assert.Equal(t, "30", summary.TotalValue.String())
}

func TestSummary_EmptyAndListFailure(t *testing.T) {
	v := NewValuator(staticHoldings{}, testutil.NewFakeOracle(), home("TRY"), 4, zerolog.Nop())
	summary, err := v.Summary(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, summary.Positions)
	assert.True(t, summary.TotalValue.IsZero())

	v = NewValuator(failingHoldings{}, testutil.NewFakeOracle(), home("TRY"), 4, zerolog.Nop())
	_, err = v.Summary(context.Background(), 1)
	assert.Error(t, err)
}
