// Package portfolio values a user's open positions in the home currency.
package portfolio

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/investments"
)

const defaultMaxConcurrentLookups = 4

// HoldingLister returns a user's open positions
type HoldingLister interface {
	ListHoldings(ctx context.Context, userID int64) ([]investments.Holding, error)
}

// Compile-time check that the position repository can feed the valuator
var _ HoldingLister = (*investments.PositionRepository)(nil)

// PositionValue is one valued position
type PositionValue struct {
	AssetID           int64            `json:"market_asset_id"`
	Symbol            string           `json:"symbol"`
	Name              string           `json:"name"`
	AssetType         domain.AssetType `json:"asset_type"`
	Quantity          decimal.Decimal  `json:"quantity"`
	AverageCost       decimal.Decimal  `json:"average_cost"`
	TotalCost         decimal.Decimal  `json:"total_cost"`
	QuotePrice        decimal.Decimal  `json:"quote_price"`
	QuoteCurrency     string           `json:"quote_currency"`
	CurrentPrice      decimal.Decimal  `json:"current_price"` // in the summary's home currency
	CurrentValue      decimal.Decimal  `json:"current_value"`
	ProfitLoss        decimal.Decimal  `json:"profit_loss"`
	ProfitLossPercent decimal.Decimal  `json:"profit_loss_percent"`
	Degraded          bool             `json:"degraded"`
	DegradedReason    string           `json:"degraded_reason,omitempty"`
}

// Summary is a point-in-time valuation of all open positions
type Summary struct {
	HomeCurrency           string          `json:"home_currency"`
	Positions              []PositionValue `json:"positions"`
	TotalValue             decimal.Decimal `json:"total_value"`
	TotalCost              decimal.Decimal `json:"total_cost"`
	TotalProfitLoss        decimal.Decimal `json:"total_profit_loss"`
	TotalProfitLossPercent decimal.Decimal `json:"total_profit_loss_percent"`
	Degraded               bool            `json:"degraded"`
	ValuedAt               time.Time       `json:"valued_at"`
}

// Valuator prices positions through the oracle. It never writes.
type Valuator struct {
	holdings      HoldingLister
	oracle        domain.PriceOracle
	homeCurrency  func() string
	maxConcurrent int
	log           zerolog.Logger
}

// NewValuator creates a valuator. homeCurrency is read on every Summary so a
// runtime settings change takes effect without a restart.
func NewValuator(holdings HoldingLister, oracle domain.PriceOracle, homeCurrency func() string, maxConcurrent int, log zerolog.Logger) *Valuator {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentLookups
	}
	return &Valuator{
		holdings:      holdings,
		oracle:        oracle,
		homeCurrency:  homeCurrency,
		maxConcurrent: maxConcurrent,
		log:           log.With().Str("service", "portfolio").Logger(),
	}
}

// Summary values every open position of userID. A position whose price or
// conversion rate cannot be obtained is valued at zero and marked degraded;
// it never fails the whole summary.
func (v *Valuator) Summary(ctx context.Context, userID int64) (*Summary, error) {
	holdings, err := v.holdings.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	home := v.homeCurrency()
	values := make([]PositionValue, len(holdings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxConcurrent)
	for i := range holdings {
		i := i
		g.Go(func() error {
			values[i] = v.value(gctx, holdings[i], home)
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{
		HomeCurrency: home,
		Positions:    values,
		TotalValue:   decimal.Zero,
		TotalCost:    decimal.Zero,
		ValuedAt:     time.Now().UTC(),
	}
	for _, pv := range values {
		summary.TotalValue = summary.TotalValue.Add(pv.CurrentValue)
		summary.TotalCost = summary.TotalCost.Add(pv.TotalCost)
		if pv.Degraded {
			summary.Degraded = true
		}
	}
	summary.TotalValue = domain.RoundMoney(summary.TotalValue)
	summary.TotalCost = domain.RoundMoney(summary.TotalCost)
	summary.TotalProfitLoss = summary.TotalValue.Sub(summary.TotalCost)
	summary.TotalProfitLossPercent = percentOf(summary.TotalProfitLoss, summary.TotalCost)

	sort.SliceStable(summary.Positions, func(i, j int) bool {
		return summary.Positions[i].CurrentValue.GreaterThan(summary.Positions[j].CurrentValue)
	})

	v.log.Debug().
		Int64("user_id", userID).
		Int("positions", len(values)).
		Str("total_value", summary.TotalValue.String()).
		Bool("degraded", summary.Degraded).
		Msg("Portfolio valued")

	return summary, nil
}

func (v *Valuator) value(ctx context.Context, h investments.Holding, home string) PositionValue {
	pv := PositionValue{
		AssetID:      h.Asset.ID,
		Symbol:       h.Asset.Symbol,
		Name:         h.Asset.Name,
		AssetType:    h.Asset.Type,
		Quantity:     h.Position.Quantity,
		TotalCost:    domain.RoundMoney(h.Position.TotalCostInUserCurrency),
		AverageCost:  domain.RoundQuantity(h.Position.TotalCostInUserCurrency.Div(h.Position.Quantity)),
		QuotePrice:   decimal.Zero,
		CurrentPrice: decimal.Zero,
		CurrentValue: decimal.Zero,
	}

	price, quote, reason := v.price(ctx, h.Asset, home)
	pv.QuoteCurrency = quote.Currency
	if reason != "" {
		pv.Degraded = true
		pv.DegradedReason = reason
		v.log.Warn().Str("symbol", h.Asset.Symbol).Str("reason", reason).Msg("Position valued at zero")
	} else {
		pv.QuotePrice = domain.RoundQuantity(quote.Price)
		pv.CurrentPrice = domain.RoundQuantity(price)
		pv.CurrentValue = domain.RoundMoney(price.Mul(h.Position.Quantity))
	}

	pv.ProfitLoss = pv.CurrentValue.Sub(pv.TotalCost)
	pv.ProfitLossPercent = percentOf(pv.ProfitLoss, pv.TotalCost)
	return pv
}

// price returns the unit price converted to home along with the raw quote,
// or a non-empty reason on failure
func (v *Valuator) price(ctx context.Context, asset domain.MarketAsset, home string) (decimal.Decimal, domain.Quote, string) {
	quote, err := v.oracle.GetPrice(ctx, domain.PriceQuery{
		Symbol:    asset.Symbol,
		AssetType: asset.Type,
		APISymbol: asset.APISymbol,
		SourceAPI: asset.SourceAPI,
	})
	if err != nil {
		return decimal.Zero, domain.Quote{Currency: asset.Currency}, "price unavailable: " + err.Error()
	}
	if !quote.Price.IsPositive() {
		return decimal.Zero, domain.Quote{Currency: asset.Currency}, "price unavailable: non-positive quote"
	}

	if quote.Currency == "" {
		quote.Currency = asset.Currency
	}
	if quote.Currency == home {
		return quote.Price, quote, ""
	}

	pair := quote.Currency + "/" + home
	rate, err := v.oracle.GetPrice(ctx, domain.ConversionQuery(quote.Currency, home))
	if err != nil {
		return decimal.Zero, quote, "conversion " + pair + " unavailable: " + err.Error()
	}
	if !rate.Price.IsPositive() {
		return decimal.Zero, quote, "conversion " + pair + " unavailable: non-positive rate"
	}
	return quote.Price.Mul(rate.Price), quote, ""
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return domain.RoundMoney(domain.Percent(part.Div(whole)))
}
