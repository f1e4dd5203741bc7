// Package di wires databases, repositories, services, handlers and jobs.
package di

import (
	"github.com/fintrack/fintrack/internal/clientdata"
	"github.com/fintrack/fintrack/internal/clients/marketdata"
	"github.com/fintrack/fintrack/internal/clients/policyrate"
	"github.com/fintrack/fintrack/internal/database"
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

// Container holds every long-lived dependency of the application.
// It is built by Wire and torn down by Close.
type Container struct {
	// Databases
	LedgerDB *database.DB // users, accounts, transactions, positions, loans, deposits
	ConfigDB *database.DB // runtime settings
	CacheDB  *database.DB // oracle and policy-rate responses

	// Repositories
	UserRepo       *users.Repository
	AccountRepo    *accounts.Repository
	EntryRepo      *ledger.Repository
	CategoryRepo   *ledger.CategoryRepository
	AssetRepo      *market.Repository
	PositionRepo   *investments.PositionRepository
	LoanRepo       *loans.Repository
	DepositRepo    *deposits.Repository
	SettingsRepo   *settings.Repository
	ClientDataRepo *clientdata.Repository

	// Clients
	MarketData     *marketdata.Client
	PolicyRateFeed *policyrate.Client
	PolicyRates    *policyrate.Provider

	// Services
	EventBus           *events.Bus
	EventManager       *events.Manager
	Poster             *ledger.Poster
	UserService        *users.Service
	AccountService     *accounts.Service
	LedgerService      *ledger.Service
	MarketService      *market.Service
	InvestmentService  *investments.Service
	TransferService    *transfers.Service
	LoanService        *loans.Service
	DepositService     *deposits.Service
	Valuator           *portfolio.Valuator
	SettingsService    *settings.Service
	BackupService      *reliability.BackupService // nil unless backups are enabled
}

// Databases returns the open databases in a stable order
func (c *Container) Databases() []*database.DB {
	return []*database.DB{c.LedgerDB, c.ConfigDB, c.CacheDB}
}

// Close closes every open database
func (c *Container) Close() {
	for _, db := range c.Databases() {
		if db != nil {
			_ = db.Close()
		}
	}
}
