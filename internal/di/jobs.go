package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/clientdata"
	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/reliability"
	"github.com/fintrack/fintrack/internal/scheduler"
)

// Maintenance schedules (cron with seconds)
const (
	coreDatabaseCheckSchedule = "0 30 2 * * *"
	cacheCleanupSchedule      = "0 0 4 * * *"
	vacuumSchedule            = "0 0 5 * * 0"
)

type scheduledJob struct {
	schedule string
	job      scheduler.Job
}

// RegisterJobs adds every maintenance job to sched
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	jobs := []scheduledJob{
		{cfg.WALCheckSchedule, scheduler.NewCheckWALCheckpointsJob(log, container.Databases()...)},
		{coreDatabaseCheckSchedule, scheduler.NewCheckCoreDatabasesJob(container.EventManager, log, container.LedgerDB, container.ConfigDB)},
		{cacheCleanupSchedule, clientdata.NewCleanupJob(container.ClientDataRepo, log)},
		{vacuumSchedule, reliability.NewVacuumJob(log, container.CacheDB)},
	}

	if container.BackupService != nil {
		jobs = append(jobs, scheduledJob{
			cfg.Backup.Schedule,
			reliability.NewBackupJob(container.BackupService, container.EventManager, cfg.Backup.RetentionDays, log),
		})
	}

	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			return fmt.Errorf("failed to register %s: %w", j.job.Name(), err)
		}
	}

	log.Info().Int("count", len(jobs)).Msg("Maintenance jobs registered")
	return nil
}
