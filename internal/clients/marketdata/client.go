// Package marketdata is the HTTP price oracle. Each lookup is a templated GET whose
// price and currency are picked out of the JSON body with jsonpath expressions.
// Quotes are never cached: every call reaches the oracle.
package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/clients"
	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/domain"
)

// Client implements domain.PriceOracle
type Client struct {
	urlTemplate  string
	apiKey       string
	pricePath    string
	currencyPath string
	httpClient   *http.Client
	log          zerolog.Logger
}

var _ domain.PriceOracle = (*Client)(nil)

// NewClient creates a price oracle client
func NewClient(cfg config.PriceOracleConfig, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		urlTemplate:  cfg.URLTemplate,
		apiKey:       cfg.APIKey,
		pricePath:    cfg.PricePath,
		currencyPath: cfg.CurrencyPath,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log.With().Str("client", "marketdata").Logger(),
	}
}

// GetPrice returns the current quote for q. A 404 or a non-positive price is
// ErrPriceNotFound; any other failure is ErrExternalUnavailable.
func (c *Client) GetPrice(ctx context.Context, q domain.PriceQuery) (domain.Quote, error) {
	if base, quote, ok := splitPair(q); ok && base == quote {
		return domain.Quote{Price: decimal.NewFromInt(1), Currency: quote, AsOf: time.Now().UTC()}, nil
	}
	if c.urlTemplate == "" {
		return domain.Quote{}, domain.ExternalUnavailable(nil, "price oracle is not configured")
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["X-API-Key"] = c.apiKey
	}
	doc, err := clients.GetJSON(ctx, c.httpClient, c.buildURL(q), headers)
	if err != nil {
		var se *clients.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return domain.Quote{}, domain.ErrPriceNotFound
		}
		c.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("Price lookup failed")
		return domain.Quote{}, domain.ExternalUnavailable(err, "price oracle unavailable for %s", q.Symbol)
	}

	price, err := clients.LookupDecimal(c.pricePath, doc)
	if err != nil {
		return domain.Quote{}, domain.ExternalUnavailable(err, "unreadable price for %s", q.Symbol)
	}
	if !price.IsPositive() {
		return domain.Quote{}, domain.ErrPriceNotFound
	}

	currency, err := c.currency(q, doc)
	if err != nil {
		return domain.Quote{}, domain.ExternalUnavailable(err, "unreadable currency for %s", q.Symbol)
	}

	quote := domain.Quote{Price: price, Currency: currency, AsOf: time.Now().UTC().Truncate(time.Second)}

	c.log.Debug().
		Str("symbol", q.Symbol).
		Str("price", price.String()).
		Str("currency", currency).
		Msg("Fetched price")

	return quote, nil
}

func (c *Client) buildURL(q domain.PriceQuery) string {
	symbol := q.APISymbol
	if symbol == "" {
		symbol = q.Symbol
	}
	return strings.NewReplacer(
		"{symbol}", url.PathEscape(symbol),
		"{source}", url.QueryEscape(q.SourceAPI),
		"{type}", url.QueryEscape(string(q.AssetType)),
	).Replace(c.urlTemplate)
}

// currency prefers the payload; currency pairs fall back to their quote side
func (c *Client) currency(q domain.PriceQuery, doc interface{}) (string, error) {
	if c.currencyPath != "" {
		s, err := clients.LookupString(c.currencyPath, doc)
		if err == nil && strings.TrimSpace(s) != "" {
			return strings.ToUpper(strings.TrimSpace(s)), nil
		}
		if _, quote, ok := splitPair(q); ok {
			return quote, nil
		}
		return "", err
	}
	if _, quote, ok := splitPair(q); ok {
		return quote, nil
	}
	return "", errors.New("no currency path configured")
}

// splitPair reads "FROM/TO" currency queries
func splitPair(q domain.PriceQuery) (base, quote string, ok bool) {
	if q.AssetType != domain.AssetCurrency {
		return "", "", false
	}
	parts := strings.Split(q.Symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), true
}
