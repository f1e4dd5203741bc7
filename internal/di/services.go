package di

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/clients/marketdata"
	"github.com/fintrack/fintrack/internal/clients/policyrate"
	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/events"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/deposits"
	"github.com/fintrack/fintrack/internal/modules/investments"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	"github.com/fintrack/fintrack/internal/modules/loans"
	"github.com/fintrack/fintrack/internal/modules/market"
	"github.com/fintrack/fintrack/internal/modules/portfolio"
	"github.com/fintrack/fintrack/internal/modules/settings"
	"github.com/fintrack/fintrack/internal/modules/transfers"
	"github.com/fintrack/fintrack/internal/modules/users"
	"github.com/fintrack/fintrack/internal/reliability"
)

// InitializeServices creates clients and services. Repositories must already exist.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	// External collaborators, both backed by the cache database
	container.MarketData = marketdata.NewClient(cfg.PriceOracle, log)
	container.PolicyRateFeed = policyrate.NewClient(cfg.PolicyRate, container.ClientDataRepo, log)
	container.PolicyRates = policyrate.NewProvider(container.SettingsRepo, container.PolicyRateFeed, cfg.PolicyRate.Fallback, log)

	container.Poster = ledger.NewPoster(container.AccountRepo, container.EntryRepo)

	container.UserService = users.NewService(container.UserRepo, log)
	container.AccountService = accounts.NewService(container.AccountRepo, container.EntryRepo, container.EventManager, log)
	container.LedgerService = ledger.NewService(container.Poster, container.CategoryRepo, container.EventManager, log)
	container.MarketService = market.NewService(container.AssetRepo, container.EventManager, log)
	container.InvestmentService = investments.NewService(
		container.Poster,
		container.PositionRepo,
		container.AssetRepo,
		container.MarketData,
		container.EventManager,
		log,
	)
	container.TransferService = transfers.NewService(container.Poster, container.UserRepo, container.EventManager, log)
	container.LoanService = loans.NewService(container.LoanRepo, container.Poster, container.EventManager, log)
	container.DepositService = deposits.NewService(container.DepositRepo, container.Poster, container.PolicyRates, container.EventManager, log)
	container.SettingsService = settings.NewService(container.SettingsRepo, log)

	fanout, err := container.SettingsRepo.GetFloat(settings.KeyMaxOracleFanout, 0)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", settings.KeyMaxOracleFanout, err)
	}
	container.Valuator = portfolio.NewValuator(
		container.PositionRepo,
		container.MarketData,
		homeCurrencyFunc(container.SettingsRepo, cfg.HomeCurrency, log),
		int(fanout),
		log,
	)

	if cfg.Backup.Enabled {
		store, err := reliability.NewS3Store(ctx, cfg.Backup)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = reliability.NewBackupService(store, cfg.DataDir, log, container.Databases()...)
	}

	log.Info().Bool("backups", container.BackupService != nil).Msg("Services initialized")
	return nil
}

// homeCurrencyFunc reads the home currency from settings on every call so a
// runtime change applies without a restart
func homeCurrencyFunc(repo *settings.Repository, fallback string, log zerolog.Logger) func() string {
	return func() string {
		home, err := repo.GetString(settings.KeyHomeCurrency, fallback)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read home currency, using configured default")
			return fallback
		}
		if home == "" {
			return fallback
		}
		return strings.ToUpper(home)
	}
}
