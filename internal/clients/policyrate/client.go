// Package policyrate supplies the central-bank policy rate that deposit pricing starts from.
package policyrate

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/clientdata"
	"github.com/fintrack/fintrack/internal/clients"
	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/domain"
)

const cacheKey = "policy_rate"

// Client reads the policy rate (a percentage) from a JSON feed
type Client struct {
	url        string
	ratePath   string
	httpClient *http.Client
	cacheRepo  *clientdata.Repository
	log        zerolog.Logger
}

// NewClient creates a policy-rate feed client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cfg config.PolicyRateConfig, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:        cfg.URL,
		ratePath:   cfg.RatePath,
		httpClient: &http.Client{Timeout: timeout},
		cacheRepo:  cacheRepo,
		log:        log.With().Str("client", "policyrate").Logger(),
	}
}

// PolicyRate fetches the current rate. When the feed fails a stale cached
// value is returned if one exists.
func (c *Client) PolicyRate(ctx context.Context) (decimal.Decimal, error) {
	if c.url == "" {
		return decimal.Zero, domain.ExternalUnavailable(nil, "policy rate feed is not configured")
	}
	if rate, ok := c.cached(true); ok {
		return rate, nil
	}

	rate, err := c.fetch(ctx)
	if err != nil {
		if stale, ok := c.cached(false); ok {
			c.log.Warn().Err(err).Str("rate", stale.String()).Msg("Policy rate feed failed, using stale cached rate")
			return stale, nil
		}
		return decimal.Zero, domain.ExternalUnavailable(err, "policy rate feed unavailable")
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(clientdata.TablePolicyRates, cacheKey, rate.String(), clientdata.TTLPolicyRate); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache policy rate")
		}
	}
	c.log.Info().Str("rate", rate.String()).Msg("Fetched policy rate")
	return rate, nil
}

func (c *Client) fetch(ctx context.Context) (decimal.Decimal, error) {
	doc, err := clients.GetJSON(ctx, c.httpClient, c.url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	rate, err := clients.LookupDecimal(c.ratePath, doc)
	if err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, domain.InvalidState("policy rate feed returned %s", rate)
	}
	return rate, nil
}

func (c *Client) cached(freshOnly bool) (decimal.Decimal, bool) {
	if c.cacheRepo == nil {
		return decimal.Zero, false
	}
	var data json.RawMessage
	var err error
	if freshOnly {
		data, err = c.cacheRepo.GetIfFresh(clientdata.TablePolicyRates, cacheKey)
	} else {
		data, err = c.cacheRepo.Get(clientdata.TablePolicyRates, cacheKey)
	}
	if err != nil || data == nil {
		return decimal.Zero, false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return decimal.Zero, false
	}
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return rate, true
}
