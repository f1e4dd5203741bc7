package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/database"
)

// VacuumJob compacts ephemeral databases. The ledger is never vacuumed in place.
type VacuumJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewVacuumJob creates a new vacuum job for the given databases
func NewVacuumJob(log zerolog.Logger, databases ...*database.DB) *VacuumJob {
	return &VacuumJob{
		databases: databases,
		log:       log.With().Str("job", "vacuum").Logger(),
	}
}

// Name returns the job name
func (j *VacuumJob) Name() string {
	return "vacuum"
}

// Run vacuums each database. Failures are logged and skipped.
func (j *VacuumJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	startTime := time.Now()
	for _, db := range j.databases {
		if db == nil || db.Profile() == database.ProfileLedger {
			continue
		}
		if err := j.vacuum(ctx, db); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
		}
	}

	j.log.Info().Dur("duration", time.Since(startTime)).Msg("Vacuum completed")
	return nil
}

func (j *VacuumJob) vacuum(ctx context.Context, db *database.DB) error {
	before, err := sizeMB(ctx, db)
	if err != nil {
		return err
	}

	if _, err := db.Conn().ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	after, err := sizeMB(ctx, db)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("database", db.Name()).
		Float64("size_before_mb", before).
		Float64("size_after_mb", after).
		Float64("space_reclaimed_mb", before-after).
		Msg("VACUUM completed")
	return nil
}

func sizeMB(ctx context.Context, db *database.DB) (float64, error) {
	var pageCount, pageSize int64
	if err := db.Conn().QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to read page_count: %w", err)
	}
	if err := db.Conn().QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to read page_size: %w", err)
	}
	return float64(pageCount*pageSize) / 1024 / 1024, nil
}
