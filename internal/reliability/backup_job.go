package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/events"
)

// BackupJob uploads a fresh backup and rotates old ones
type BackupJob struct {
	service       *BackupService
	eventManager  *events.Manager
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, eventManager *events.Manager, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service:       service,
		eventManager:  eventManager,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "s3_backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "s3_backup"
}

// Run creates the backup, then rotates. A failed rotation does not fail the job.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	info, err := j.service.CreateAndUploadBackup(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Backup failed")
		j.eventManager.EmitError("reliability", err, map[string]interface{}{"job": j.Name()})
		return fmt.Errorf("backup failed: %w", err)
	}

	deleted, err := j.service.RotateOldBackups(ctx, j.retentionDays)
	if err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	j.eventManager.Emit(events.BackupCompleted, "reliability", map[string]interface{}{
		"key":        info.Key,
		"size_bytes": info.SizeBytes,
		"timestamp":  info.Timestamp,
		"rotated":    deleted,
	})
	return nil
}
