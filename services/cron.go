package services

import (
	"context"
	"time"

	"docqa-platform/internal/logger"

	"github.com/go-co-op/gocron"
)

// MaintenanceService runs the periodic housekeeping jobs: the daily prune of
// aged usage buckets at UTC midnight.
type MaintenanceService struct {
	scheduler     *gocron.Scheduler
	stats         StatsStore
	retentionDays int
}

func NewMaintenanceService(stats StatsStore, retentionDays int) *MaintenanceService {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &MaintenanceService{
		scheduler:     s,
		stats:         stats,
		retentionDays: retentionDays,
	}
}

// Start registers the jobs and launches the scheduler in the background.
func (m *MaintenanceService) Start() error {
	_, err := m.scheduler.Every(1).Day().At("00:00").Tag("stats-prune").Do(m.pruneStats)
	if err != nil {
		return err
	}
	m.scheduler.StartAsync()
	logger.Info("maintenance scheduler started", "retention_days", m.retentionDays)
	return nil
}

func (m *MaintenanceService) Stop() {
	m.scheduler.Stop()
}

func (m *MaintenanceService) pruneStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pruned, err := m.stats.PruneDaily(ctx, m.retentionDays)
	if err != nil {
		logger.Error("daily stats prune failed", "error", err)
		return
	}
	logger.Info("daily stats prune completed", "buckets_removed", pruned)
}
