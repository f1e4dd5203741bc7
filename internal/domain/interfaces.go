package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPriceNotFound is returned by a PriceOracle that has no quote for the symbol
var ErrPriceNotFound = errors.New("price not found")

// PriceQuery carries the routing metadata stored on a MarketAsset
type PriceQuery struct {
	Symbol    string
	AssetType AssetType
	APISymbol string
	SourceAPI string
}

// Quote is a single price observation
type Quote struct {
	Price    decimal.Decimal
	Currency string
	AsOf     time.Time
}

// PriceOracle returns current prices. It is network-bound:
// callers must expect ErrPriceNotFound or ErrExternalUnavailable.
type PriceOracle interface {
	GetPrice(ctx context.Context, q PriceQuery) (Quote, error)
}

// ConversionQuery builds the oracle query for a "FROM/TO" currency pair
func ConversionQuery(from, to string) PriceQuery {
	pair := from + "/" + to
	return PriceQuery{Symbol: pair, AssetType: AssetCurrency, APISymbol: pair}
}

// PolicyRateProvider returns the central-bank policy rate as a percentage (e.g. 50 for 50%).
// Failure is reported as ErrExternalUnavailable.
type PolicyRateProvider interface {
	PolicyRate(ctx context.Context) (decimal.Decimal, error)
}
