package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/portfolio"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleSummary() *portfolio.Summary {
	return &portfolio.Summary{
		HomeCurrency: "TRY",
		ValuedAt:     time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Positions: []portfolio.PositionValue{
			{
				Symbol: "AAPL", Name: "Apple Inc.", AssetType: domain.AssetStock,
				Quantity: d("10"), AverageCost: d("150"), TotalCost: d("1500"),
				QuotePrice: d("5"), QuoteCurrency: "USD", CurrentPrice: d("200"), CurrentValue: d("2000"),
				ProfitLoss: d("500"), ProfitLossPercent: d("33.33"),
			},
			{
				Symbol: "THYAO", Name: "Türk Hava Yolları", AssetType: domain.AssetStock,
				Quantity: d("5"), AverageCost: d("300"), TotalCost: d("1500"),
				CurrentValue: decimal.Zero, ProfitLoss: d("-1500"), ProfitLossPercent: d("-100"),
				Degraded: true, DegradedReason: "price oracle unavailable",
			},
		},
		TotalValue:             d("2000"),
		TotalCost:              d("3000"),
		TotalProfitLoss:        d("-1000"),
		TotalProfitLossPercent: d("-33.33"),
		Degraded:               true,
	}
}

func TestPortfolioMarkdown(t *testing.T) {
	md, err := PortfolioMarkdown(sampleSummary())
	require.NoError(t, err)

	assert.Contains(t, md, "# Portfolio Summary")
	assert.Contains(t, md, "2026-03-14 09:30 UTC")
	assert.Contains(t, md, "| 2000.00 | 3000.00 | -1000.00 | -33.33% |")
	assert.Contains(t, md, "| AAPL | Apple Inc. | Stock | 10 | 150.00 | 5.00 USD | 200.00 | 2000.00 | +500.00 | +33.33% |")
	assert.Contains(t, md, "| THYAO | Türk Hava Yolları | Stock | 5 | 300.00 | n/a | n/a |")
	assert.Contains(t, md, "could not be priced")
	assert.Contains(t, md, "**THYAO**: price oracle unavailable")
}

func TestPortfolioMarkdown_Empty(t *testing.T) {
	md, err := PortfolioMarkdown(&portfolio.Summary{HomeCurrency: "TRY"})
	require.NoError(t, err)
	assert.Contains(t, md, "No open positions.")
	assert.NotContains(t, md, "could not be priced")
}

func TestHTML(t *testing.T) {
	md, err := PortfolioMarkdown(sampleSummary())
	require.NoError(t, err)

	html, err := HTML(md)
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>Portfolio Summary</h1>")
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>AAPL</td>")
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Title\n\nbody text", 40)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "body text")
}
