package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
	"github.com/fintrack/fintrack/internal/events"
)

// CheckCoreDatabasesJob verifies integrity of the ledger and config databases
type CheckCoreDatabasesJob struct {
	log          zerolog.Logger
	eventManager *events.Manager
	databases    []*database.DB
}

// NewCheckCoreDatabasesJob creates a new CheckCoreDatabasesJob
func NewCheckCoreDatabasesJob(eventManager *events.Manager, log zerolog.Logger, databases ...*database.DB) *CheckCoreDatabasesJob {
	return &CheckCoreDatabasesJob{
		log:          log.With().Str("job", "check_core_databases").Logger(),
		eventManager: eventManager,
		databases:    databases,
	}
}

// Name returns the job name
func (j *CheckCoreDatabasesJob) Name() string {
	return "check_core_databases"
}

// Run checks every database and fails on the first corrupt one.
// Corruption cannot be repaired automatically, so it is also published as an ErrorOccurred event.
func (j *CheckCoreDatabasesJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Core database integrity check failed")
			j.eventManager.EmitError("scheduler", err, map[string]interface{}{"database": db.Name()})
			return fmt.Errorf("database %s failed its integrity check: %w", db.Name(), err)
		}
		j.log.Debug().Str("database", db.Name()).Msg("Database integrity OK")
	}

	j.log.Info().Int("checked", len(j.databases)).Msg("All core databases integrity check passed")
	return nil
}
