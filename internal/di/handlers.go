package di

import (
	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/config"
	accounthandlers "github.com/fintrack/fintrack/internal/modules/accounts/handlers"
	deposithandlers "github.com/fintrack/fintrack/internal/modules/deposits/handlers"
	investmenthandlers "github.com/fintrack/fintrack/internal/modules/investments/handlers"
	ledgerhandlers "github.com/fintrack/fintrack/internal/modules/ledger/handlers"
	loanhandlers "github.com/fintrack/fintrack/internal/modules/loans/handlers"
	markethandlers "github.com/fintrack/fintrack/internal/modules/market/handlers"
	portfoliohandlers "github.com/fintrack/fintrack/internal/modules/portfolio/handlers"
	settingshandlers "github.com/fintrack/fintrack/internal/modules/settings/handlers"
	transferhandlers "github.com/fintrack/fintrack/internal/modules/transfers/handlers"
	userhandlers "github.com/fintrack/fintrack/internal/modules/users/handlers"
	"github.com/fintrack/fintrack/internal/server"
)

// Handlers builds the HTTP handler of every module
func Handlers(container *Container, cfg *config.Config, log zerolog.Logger) []server.RouteRegistrar {
	reloadSettings := func() {
		if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
			log.Warn().Err(err).Msg("Settings changed but configuration reload failed")
		}
	}

	return []server.RouteRegistrar{
		userhandlers.NewHandler(container.UserService, log),
		accounthandlers.NewHandler(container.AccountService, log),
		ledgerhandlers.NewHandler(container.LedgerService, log),
		investmenthandlers.NewHandler(container.InvestmentService, log),
		transferhandlers.NewHandler(container.TransferService, log),
		loanhandlers.NewHandler(container.LoanService, log),
		deposithandlers.NewHandler(container.DepositService, log),
		portfoliohandlers.NewHandler(container.Valuator, log),
		markethandlers.NewHandler(container.MarketService, log),
		settingshandlers.NewHandler(container.SettingsService, reloadSettings, log),
	}
}
