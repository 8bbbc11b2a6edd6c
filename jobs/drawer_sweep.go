package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fixpoint-app/fixpoint/internal/jobs"
)

const defaultSweepAge = 18 * time.Hour

// DrawerSweeper flags drawers left open past the cutoff.
type DrawerSweeper interface {
	SweepStale(ctx context.Context, olderThan time.Duration) (int, error)
}

// DrawerSweepJob runs the nightly drawer reconciliation sweep.
type DrawerSweepJob struct {
	Sweeper DrawerSweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewDrawerSweepJob initialises the sweep handler.
func NewDrawerSweepJob(sweeper DrawerSweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *DrawerSweepJob {
	return &DrawerSweepJob{Sweeper: sweeper, Logger: logger, Metrics: metrics}
}

// Handle executes one TaskDrawerSweep task.
func (j *DrawerSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sweeper == nil {
		return errors.New("drawer sweep: handler not configured")
	}
	var payload DrawerSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	olderThan := defaultSweepAge
	if payload.OlderThan != "" {
		if d, err := time.ParseDuration(payload.OlderThan); err == nil && d > 0 {
			olderThan = d
		}
	}

	tracker := j.Metrics.Track(TaskDrawerSweep)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := time.Now()
	flagged, err := j.Sweeper.SweepStale(ctx, olderThan)
	if err != nil {
		resultErr = err
		j.logger().Error("sweep failed", slog.Any("error", err))
		return resultErr
	}
	if flagged > 0 {
		j.Metrics.AddStaleDrawers(flagged)
	}
	j.logger().Info("completed drawer sweep",
		slog.Int("flagged", flagged),
		slog.Duration("older_than", olderThan),
		slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *DrawerSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDrawerSweep))
	}
	return slog.Default().With(slog.String("job", TaskDrawerSweep))
}
