package policyrate

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fintrack/fintrack/internal/domain"
	"github.com/fintrack/fintrack/internal/modules/settings"
)

// SettingsReader is the subset of settings.Repository the provider needs
type SettingsReader interface {
	GetFloat(key string, defaultValue float64) (float64, error)
}

// Provider resolves the policy rate in order: a positive override in
// settings, the live feed, then the configured fallback.
type Provider struct {
	settings SettingsReader
	feed     domain.PolicyRateProvider
	fallback decimal.Decimal
	log      zerolog.Logger
}

var _ domain.PolicyRateProvider = (*Provider)(nil)

// NewProvider creates the resolving provider. feed and settings may be nil.
func NewProvider(settingsRepo SettingsReader, feed domain.PolicyRateProvider, fallback float64, log zerolog.Logger) *Provider {
	return &Provider{
		settings: settingsRepo,
		feed:     feed,
		fallback: decimal.NewFromFloat(fallback),
		log:      log.With().Str("component", "policy_rate").Logger(),
	}
}

// PolicyRate implements domain.PolicyRateProvider
func (p *Provider) PolicyRate(ctx context.Context) (decimal.Decimal, error) {
	if p.settings != nil {
		override, err := p.settings.GetFloat(settings.KeyPolicyRateOverride, 0)
		if err != nil {
			p.log.Warn().Err(err).Msg("Failed to read policy rate override")
		} else if override > 0 {
			return decimal.NewFromFloat(override), nil
		}
	}

	var feedErr error
	if p.feed != nil {
		rate, err := p.feed.PolicyRate(ctx)
		if err == nil {
			return rate, nil
		}
		feedErr = err
	}

	if p.fallback.IsPositive() {
		p.log.Warn().Err(feedErr).Str("fallback", p.fallback.String()).Msg("Using fallback policy rate")
		return p.fallback, nil
	}
	if feedErr != nil {
		return decimal.Zero, feedErr
	}
	return decimal.Zero, domain.ExternalUnavailable(nil, "no policy rate source configured")
}
