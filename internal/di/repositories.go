package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/clientdata"
	"github.com/fintrack/fintrack/internal/modules/accounts"
	"github.com/fintrack/fintrack/internal/modules/deposits"
	"github.com/fintrack/fintrack/internal/modules/investments"
	"github.com/fintrack/fintrack/internal/modules/ledger"
	"github.com/fintrack/fintrack/internal/modules/loans"
	"github.com/fintrack/fintrack/internal/modules/market"
	"github.com/fintrack/fintrack/internal/modules/settings"
	"github.com/fintrack/fintrack/internal/modules/users"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	ledgerConn := container.LedgerDB.Conn()

	container.UserRepo = users.NewRepository(ledgerConn, log)
	container.AccountRepo = accounts.NewRepository(ledgerConn, log)
	container.EntryRepo = ledger.NewRepository(ledgerConn, log)
	container.CategoryRepo = ledger.NewCategoryRepository(ledgerConn, log)
	container.AssetRepo = market.NewRepository(ledgerConn, log)
	container.PositionRepo = investments.NewPositionRepository(ledgerConn, log)
	container.LoanRepo = loans.NewRepository(ledgerConn, log)
	container.DepositRepo = deposits.NewRepository(ledgerConn, log)

	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	log.Info().Msg("Repositories initialized")
	return nil
}
