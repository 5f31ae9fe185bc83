// Package jobs holds the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonhee/tigerboard/internal/collector"
	"github.com/wonhee/tigerboard/internal/ranking"
	"github.com/wonhee/tigerboard/pkg/logger"
)

// DailyUpdateJob runs the full daily pipeline after market close:
// fetch every active instrument, then recompute both leaderboards.
type DailyUpdateJob struct {
	collector *collector.Collector
	ranking   *ranking.Engine
	schedule  string
	logger    *logger.Logger
}

// NewDailyUpdateJob creates the job. The schedule comes from config so
// deployments in other timezones can shift it.
func NewDailyUpdateJob(col *collector.Collector, eng *ranking.Engine, schedule string, log *logger.Logger) *DailyUpdateJob {
	return &DailyUpdateJob{
		collector: col,
		ranking:   eng,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name.
func (j *DailyUpdateJob) Name() string {
	return "daily_update"
}

// Schedule returns the cron expression, default 17:30 on weekdays.
func (j *DailyUpdateJob) Schedule() string {
	return j.schedule
}

// Run executes the daily pipeline. A batch with failures still counts
// as a successful run when at least one instrument came through; the
// rankings should reflect whatever data exists.
func (j *DailyUpdateJob) Run(ctx context.Context) error {
	j.logger.Info("Starting daily update")

	result, err := j.collector.RunBatch(ctx, nil, false)
	if err != nil {
		return fmt.Errorf("run batch: %w", err)
	}
	if result.Succeeded == 0 && result.Failed > 0 {
		return fmt.Errorf("batch produced no data: %d failed", result.Failed)
	}

	today := time.Now().UTC()
	if _, err := j.ranking.ComputeAssetRanking(ctx, today); err != nil {
		return fmt.Errorf("compute asset ranking: %w", err)
	}
	if _, err := j.ranking.ComputeUserRanking(ctx, today); err != nil {
		return fmt.Errorf("compute user ranking: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	}).Info("Daily update completed")
	return nil
}
