package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/modules/settings"
	"github.com/fintrack/fintrack/internal/scheduler"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:          t.TempDir(),
		Port:             8080,
		HomeCurrency:     "TRY",
		WALCheckSchedule: "0 */15 * * * *",
	}
}

func TestInitializeDatabases(t *testing.T) {
	cfg := testConfig(t)

	container, err := InitializeDatabases(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.LedgerDB)
	assert.NotNil(t, container.ConfigDB)
	assert.NotNil(t, container.CacheDB)
	assert.Len(t, container.Databases(), 3)

	for _, name := range []string{"ledger.db", "config.db", "cache.db"} {
		assert.FileExists(t, filepath.Join(cfg.DataDir, name))
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.NotNil(t, container.AccountService)
	assert.NotNil(t, container.LedgerService)
	assert.NotNil(t, container.InvestmentService)
	assert.NotNil(t, container.TransferService)
	assert.NotNil(t, container.LoanService)
	assert.NotNil(t, container.DepositService)
	assert.NotNil(t, container.Valuator)
	assert.NotNil(t, container.EventManager)
	assert.Nil(t, container.BackupService, "backups are off by default")

	handlers := Handlers(container, cfg, zerolog.Nop())
	assert.Len(t, handlers, 10)

	r := chi.NewRouter()
	assert.NotPanics(t, func() {
		for _, h := range handlers {
			h.RegisterRoutes(r)
		}
	}, "module routes must not collide")
}

func TestWire_StoredHomeCurrencyWins(t *testing.T) {
	cfg := testConfig(t)
	dataDir := cfg.DataDir

	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, container.SettingsRepo.Set(settings.KeyHomeCurrency, "eur"))
	container.Close()

	cfg = testConfig(t)
	cfg.DataDir = dataDir
	container, err = Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	assert.Equal(t, "EUR", cfg.HomeCurrency)
	assert.Equal(t, "EUR", homeCurrencyFunc(container.SettingsRepo, "TRY", zerolog.Nop())())
}

func TestRegisterJobs(t *testing.T) {
	cfg := testConfig(t)
	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	sched := scheduler.New(zerolog.Nop())
	require.NoError(t, RegisterJobs(container, cfg, sched, zerolog.Nop()))

	require.NoError(t, sched.RunByName("check_wal_checkpoints"))
	require.NoError(t, sched.RunByName("check_core_databases"))
	require.NoError(t, sched.RunByName("client_data_cleanup"))
	require.NoError(t, sched.RunByName("vacuum"))
	assert.Error(t, sched.RunByName("s3_backup"))
}

func TestRegisterJobs_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.WALCheckSchedule = "not a schedule"
	container, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	err = RegisterJobs(container, cfg, scheduler.New(zerolog.Nop()), zerolog.Nop())
	assert.Error(t, err)
}
