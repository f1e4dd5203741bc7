package testing

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
)

// FakeOracle is an in-memory PriceOracle keyed by symbol ("AAPL", "USD/TRY")
type FakeOracle struct {
	mu     sync.Mutex
	quotes map[string]domain.Quote
	errs   map[string]error
	calls  map[string]int
}

// NewFakeOracle creates an empty oracle; unknown symbols return domain.ErrPriceNotFound
func NewFakeOracle() *FakeOracle {
	return &FakeOracle{
		quotes: make(map[string]domain.Quote),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// SetPrice registers a quote
func (o *FakeOracle) SetPrice(symbol, price, currency string) *FakeOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quotes[symbol] = domain.Quote{Price: decimal.RequireFromString(price), Currency: currency}
	return o
}

// SetError makes lookups of symbol fail with err
func (o *FakeOracle) SetError(symbol string, err error) *FakeOracle {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errs[symbol] = err
	return o
}

// Calls returns how many times symbol was looked up
func (o *FakeOracle) Calls(symbol string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls[symbol]
}

// GetPrice implements domain.PriceOracle
func (o *FakeOracle) GetPrice(_ context.Context, q domain.PriceQuery) (domain.Quote, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls[q.Symbol]++
	if err, ok := o.errs[q.Symbol]; ok {
		return domain.Quote{}, err
	}
	quote, ok := o.quotes[q.Symbol]
	if !ok {
		return domain.Quote{}, domain.ErrPriceNotFound
	}
	return quote, nil
}

// FakePolicyRate is a fixed PolicyRateProvider
type FakePolicyRate struct {
	Rate decimal.Decimal
	Err  error
}

// PolicyRate implements domain.PolicyRateProvider
func (p FakePolicyRate) PolicyRate(context.Context) (decimal.Decimal, error) {
	return p.Rate, p.Err
}
