package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/quantframe/quantframe/internal/database"
)

// HistoryMaintenanceJob prunes price history beyond the retention
// window so the returns store does not grow unbounded.
type HistoryMaintenanceJob struct {
	history       *database.HistoryRepository
	retentionDays int
	log           zerolog.Logger
}

// NewHistoryMaintenanceJob creates the job.
func NewHistoryMaintenanceJob(history *database.HistoryRepository, retentionDays int, log zerolog.Logger) *HistoryMaintenanceJob {
	return &HistoryMaintenanceJob{
		history:       history,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "history_maintenance").Logger(),
	}
}

// Name implements Job.
func (j *HistoryMaintenanceJob) Name() string { return "history_maintenance" }

// Run implements Job.
func (j *HistoryMaintenanceJob) Run() error {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)
	deleted, err := j.history.Prune(cutoff)
	if err != nil {
		return err
	}
	j.log.Debug().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("History maintenance finished")
	return nil
}
