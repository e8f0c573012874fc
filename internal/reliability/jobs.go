package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/database"
)

// BackupJob runs a scheduled backup followed by rotation
type BackupJob struct {
	service *BackupService
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler logging
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates and uploads a backup, then rotates old archives
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if err := j.service.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	if err := j.service.RotateOldBackups(ctx); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}
	return nil
}

// CacheCleaner removes expired entries from a cache store
type CacheCleaner interface {
	Cleanup() (int64, error)
}

// MaintenanceJob performs daily database maintenance: integrity checks,
// WAL checkpoints and expired cache cleanup.
type MaintenanceJob struct {
	databases []*database.DB
	cleaner   CacheCleaner
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(databases []*database.DB, cleaner CacheCleaner, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		cleaner:   cleaner,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler logging
func (j *MaintenanceJob) Name() string {
	return "daily_maintenance"
}

// Run executes the maintenance steps. Checkpoint and cleanup failures
// are logged but do not fail the run; a failed integrity check does.
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting daily maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		j.log.Debug().Str("database", db.Name()).Msg("Running integrity check")
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("integrity check failed for %s: %w", db.Name(), err)
		}

		if _, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			j.log.Warn().Str("database", db.Name()).Err(err).Msg("WAL checkpoint failed")
		}
	}

	if j.cleaner != nil {
		removed, err := j.cleaner.Cleanup()
		if err != nil {
			j.log.Warn().Err(err).Msg("Cache cleanup failed")
		} else if removed > 0 {
			j.log.Info().Int64("removed", removed).Msg("Expired cache entries removed")
		}
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Daily maintenance completed")
	return nil
}
