package jobs

import (
	"database/sql"
	"fmt"
	"log"

	"AestrakTrack/internal/logger"
	"AestrakTrack/internal/serviceiface"
)

// CronService runs the background maintenance schedules: currently the
// stale import-job reaper. It works on the database/sql handle rather
// than the pgx pool the request path uses.
type CronService struct {
	config map[string]interface{}
	db     *sql.DB
}

func NewCronService(cfg map[string]interface{}, db *sql.DB) serviceiface.Service {
	return &CronService{
		config: cfg,
		db:     db,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	reaperConfig := NewDefaultReaperConfig()
	if s.config != nil {
		if schedule, ok := s.config["reaper_schedule"].(string); ok && schedule != "" {
			reaperConfig.Schedule = schedule
		}
		if cutoff, ok := s.config["stale_cutoff_minutes"].(int); ok && cutoff > 0 {
			reaperConfig.CutoffMinutes = cutoff
		}
	}

	if err := RunImportJobReaper(reaperConfig, s.db); err != nil {
		return fmt.Errorf("failed to start import job reaper: %v", err)
	}

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Cron service started with import job reaper")
	}
	log.Println("Cron service started, import job reaper scheduled")
	return nil
}

func (s *CronService) Stop() error {
	return nil
}
