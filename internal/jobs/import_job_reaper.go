package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"AestrakTrack/internal/config"

	"github.com/robfig/cron/v3"
)

// ReaperConfig tunes the stale import-job sweep.
type ReaperConfig struct {
	Schedule      string
	CutoffMinutes int
	TimeZone      string
}

func NewDefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		Schedule:      config.DefaultReaperSchedule,
		CutoffMinutes: config.StaleJobCutoffMinutes,
		TimeZone:      config.DefaultTimeZone,
	}
}

// RunImportJobReaper schedules a sweep that fails import jobs left in
// processing state beyond the cutoff. The orchestrator itself always
// writes a terminal status; this catches jobs orphaned by a process
// crash mid-import so the UI never shows a forever-spinning job.
func RunImportJobReaper(cfg ReaperConfig, db *sql.DB) error {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %v", cfg.TimeZone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.Schedule, func() {
		reapStaleImportJobs(db, cfg.CutoffMinutes)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule import job reaper: %v", err)
	}
	c.Start()
	return nil
}

const reapStaleJobsQuery = `
	UPDATE import_jobs
	SET status = 'failed', error_count = 1, updated_at = now()
	WHERE status = 'processing'
	  AND created_at < now() - make_interval(mins => $1)`

func reapStaleImportJobs(db *sql.DB, cutoffMinutes int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := db.ExecContext(ctx, reapStaleJobsQuery, cutoffMinutes)
	if err != nil {
		log.Printf("[ERROR] import job reaper sweep failed: %v", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Printf("[INFO] import job reaper failed %d stale job(s)", n)
	}
}
