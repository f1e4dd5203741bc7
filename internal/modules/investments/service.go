// Package investments executes buys and sells of market assets against an
// account balance and maintains the weighted-average-cost positions they produce.
package investments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/events"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	"github.com/fintrack/fintrack/internal/modules/market"
)

// InvestmentRequest is a single buy or sell.
// UnitPrice is quoted in PriceCurrency, which may differ from the account currency.
type InvestmentRequest struct {
	AccountID     int64           `json:"account_id"`
	AssetID       int64           `json:"market_asset_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	PriceCurrency string          `json:"price_currency"`
	Direction     string          `json:"direction"`
	Timestamp     *time.Time      `json:"timestamp,omitempty"`
}

// InvestmentResult reports what was written. Position is nil after a full liquidation.
type InvestmentResult struct {
	Transaction    *domain.Transaction `json:"transaction"`
	Position       *domain.Position    `json:"position"`
	ConversionRate decimal.Decimal     `json:"conversion_rate"`
}

// Service executes investment transactions
type Service struct {
	poster       *ledger.Poster
	positions    *PositionRepository
	assets       *market.Repository
	oracle       domain.PriceOracle
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewService creates a new investment service
func NewService(
	poster *ledger.Poster,
	positions *PositionRepository,
	assets *market.Repository,
	oracle domain.PriceOracle,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		poster:       poster,
		positions:    positions,
		assets:       assets,
		oracle:       oracle,
		eventManager: eventManager,
		log:          log.With().Str("service", "investments").Logger(),
	}
}

// Positions exposes the position repository
func (s *Service) Positions() *PositionRepository {
	return s.positions
}

// ExecuteInvestment buys or sells req.Quantity of an asset.
// A cross-currency rate is fetched from the oracle before the database transaction begins;
// the debit or credit, the position change and the ledger entry then commit together.
func (s *Service) ExecuteInvestment(ctx context.Context, userID int64, req InvestmentRequest) (*InvestmentResult, error) {
	direction, err := domain.ParseTradeDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	quantity := domain.RoundQuantity(req.Quantity)
	if !quantity.IsPositive() {
		return nil, domain.InvalidState("quantity must be greater than zero")
	}
	unitPrice := domain.RoundQuantity(req.UnitPrice)
	if !unitPrice.IsPositive() {
		return nil, domain.InvalidState("unit price must be greater than zero")
	}

	acc, err := s.poster.Accounts().LoadUsable(ctx, nil, userID, req.AccountID)
	if err != nil {
		return nil, err
	}
	asset, err := s.assets.GetByID(ctx, nil, req.AssetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.NotFound("market asset %d not found", req.AssetID)
	}

	priceCurrency := acc.Currency
	if strings.TrimSpace(req.PriceCurrency) != "" {
		priceCurrency, err = domain.NormalizeCurrency(req.PriceCurrency)
		if err != nil {
			return nil, err
		}
	}

	rate, err := s.conversionRate(ctx, priceCurrency, acc.Currency)
	if err != nil {
		return nil, err
	}

	convertedCost := quantity.Mul(unitPrice).Mul(rate)
	total := domain.RoundMoney(convertedCost)
	if !total.IsPositive() {
		return nil, domain.InvalidState("investment total rounds to zero")
	}

	entry := &domain.Transaction{
		UserID:        userID,
		Amount:        total,
		Description:   describe(direction, quantity, asset.Symbol, unitPrice, priceCurrency, rate),
		Source:        domain.SourceInvestment,
		MarketAssetID: &asset.ID,
		Quantity:      &quantity,
		Price:         &unitPrice,
	}
	if req.Timestamp != nil {
		entry.TransactionDate = *req.Timestamp
	}

	var position *domain.Position
	err = database.WithTransactionContext(ctx, s.poster.Accounts().DB(), func(tx *sql.Tx) error {
		acc, err := s.poster.Accounts().LoadUsable(ctx, tx, userID, req.AccountID)
		if err != nil {
			return err
		}
		current, err := s.positions.Get(ctx, tx, userID, asset.ID)
		if err != nil {
			return err
		}

		switch direction {
		case domain.Buy:
			if err := accounts.RequireFunds(acc, total); err != nil {
				return err
			}
			entry.Type = domain.TxInvestmentBuy
			position = applyBuy(current, userID, asset.ID, quantity, unitPrice, total)
			if err := s.positions.Save(ctx, tx, position); err != nil {
				return err
			}
		case domain.Sell:
			if current == nil {
				return domain.InvalidState("no open position in %s to sell", asset.Symbol)
			}
			if current.Quantity.LessThan(quantity) {
				return domain.InvalidState("cannot sell %s %s, only %s held",
					quantity.String(), asset.Symbol, current.Quantity.String())
			}
			entry.Type = domain.TxInvestmentSell
			position = applySell(current, quantity)
			if position == nil {
				if err := s.positions.Delete(ctx, tx, current.ID); err != nil {
					return err
				}
			} else if err := s.positions.Save(ctx, tx, position); err != nil {
				return err
			}
		}

		return s.poster.Post(ctx, tx, acc, entry)
	})
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Str("symbol", asset.Symbol).Str("direction", string(direction)).Msg("Investment rejected")
		return nil, err
	}

	s.log.Info().
		Int64("user_id", userID).
		Str("symbol", asset.Symbol).
		Str("direction", string(direction)).
		Str("quantity", quantity.String()).
		Str("amount", total.String()).
		Str("rate", rate.String()).
		Msg("Investment executed")
	s.eventManager.EmitTyped(userID, "investments", &events.InvestmentExecutedData{
		Symbol:    asset.Symbol,
		Direction: string(direction),
		Quantity:  quantity.String(),
		UnitPrice: unitPrice.String(),
		Total:     total.String(),
		Closed:    position == nil,
	})

	return &InvestmentResult{Transaction: entry, Position: position, ConversionRate: rate}, nil
}

// ListHoldings returns the user's open positions
func (s *Service) ListHoldings(ctx context.Context, userID int64) ([]Holding, error) {
	return s.positions.ListHoldings(ctx, userID)
}

func (s *Service) conversionRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if s.oracle == nil {
		return decimal.Zero, domain.ExternalUnavailable(nil, "no price oracle configured for %s/%s", from, to)
	}
	quote, err := s.oracle.GetPrice(ctx, domain.ConversionQuery(from, to))
	if err != nil {
		if errors.Is(err, domain.ErrExternalUnavailable) {
			return decimal.Zero, err
		}
		return decimal.Zero, domain.ExternalUnavailable(err, "conversion rate %s/%s unavailable", from, to)
	}
	if !quote.Price.IsPositive() {
		return decimal.Zero, domain.ExternalUnavailable(nil, "conversion rate %s/%s is not positive", from, to)
	}
	return quote.Price, nil
}

// applyBuy returns the position after buying quantity at unitPrice.
// Average cost is weighted on the quoted unit price; total cost accumulates the converted amount.
func applyBuy(current *domain.Position, userID, assetID int64, quantity, unitPrice, convertedCost decimal.Decimal) *domain.Position {
	if current == nil {
		return &domain.Position{
			UserID:                  userID,
			MarketAssetID:           assetID,
			Quantity:                quantity,
			AverageCost:             unitPrice,
			TotalCostInUserCurrency: domain.RoundQuantity(convertedCost),
		}
	}

	next := *current
	next.Quantity = current.Quantity.Add(quantity)
	next.AverageCost = domain.RoundQuantity(
		current.AverageCost.Mul(current.Quantity).Add(unitPrice.Mul(quantity)).Div(next.Quantity))
	next.TotalCostInUserCurrency = domain.RoundQuantity(current.TotalCostInUserCurrency.Add(convertedCost))
	return &next
}

// applySell returns the position after selling quantity, or nil when nothing is left
func applySell(current *domain.Position, quantity decimal.Decimal) *domain.Position {
	remaining := current.Quantity.Sub(quantity)
	if remaining.IsZero() {
		return nil
	}

	soldCost := current.TotalCostInUserCurrency.Div(current.Quantity).Mul(quantity)
	next := *current
	next.Quantity = remaining
	next.TotalCostInUserCurrency = domain.RoundQuantity(current.TotalCostInUserCurrency.Sub(soldCost))
	return &next
}

func describe(direction domain.TradeDirection, quantity decimal.Decimal, symbol string, unitPrice decimal.Decimal, currency string, rate decimal.Decimal) string {
	d := fmt.Sprintf("%s - %s %s @ %s %s", direction, quantity.String(), symbol, unitPrice.StringFixed(4), currency)
	if !rate.Equal(decimal.NewFromInt(1)) {
		d += fmt.Sprintf(" (rate: %s)", rate.StringFixed(4))
	}
	return d
}
