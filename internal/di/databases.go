package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/database"
)

// InitializeDatabases opens the three databases and applies their schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	defs := []struct {
		name    string
		profile database.DatabaseProfile
		target  **database.DB
	}{
		// financial record of truth, fsync on every commit
		{"ledger", database.ProfileLedger, &container.LedgerDB},
		{"config", database.ProfileStandard, &container.ConfigDB},
		// ephemeral responses, safe to lose
		{"cache", database.ProfileCache, &container.CacheDB},
	}

	for _, def := range defs {
		db, err := database.New(database.Config{
			Path:    filepath.Join(cfg.DataDir, def.name+".db"),
			Profile: def.profile,
			Name:    def.name,
		})
		if err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to initialize %s database: %w", def.name, err)
		}
		*def.target = db

		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", def.name, err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("All databases initialized and schemas applied")
	return container, nil
}
