package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"crowdcache/internal/retry"
	"crowdcache/internal/syncer"
)

// Daemon schedules periodic catch-up syncs against the ledger. Each run goes
// through the configured retry strategy; overlapping runs are skipped (the
// synchronizer rejects them).
type Daemon struct {
	scheduler gocron.Scheduler
	sync      *syncer.Synchronizer
	strategy  retry.Strategy
	interval  time.Duration
}

// New creates a daemon that syncs every interval.
func New(sync *syncer.Synchronizer, strategy retry.Strategy, interval time.Duration) (*Daemon, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Daemon{
		scheduler: s,
		sync:      sync,
		strategy:  strategy,
		interval:  interval,
	}, nil
}

// Start registers the periodic sync job and begins the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	_, err := d.scheduler.NewJob(
		gocron.DurationJob(d.interval),
		gocron.NewTask(d.runSync, ctx),
		gocron.WithName("catch-up-sync"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sync job: %w", err)
	}

	slog.Info("Sync daemon starting",
		"interval", d.interval,
		"retry_strategy", d.strategy.Name(),
	)
	d.scheduler.Start()

	return nil
}

// Stop gracefully shuts down the scheduler.
func (d *Daemon) Stop() error {
	slog.Info("Stopping sync daemon")
	return d.scheduler.Shutdown()
}

// runSync is called by gocron for each scheduled run.
func (d *Daemon) runSync(ctx context.Context) {
	runID := uuid.NewString()
	started := time.Now()

	slog.Debug("Scheduled sync starting", "run_id", runID)

	err := d.strategy.Execute(ctx, func() error {
		return d.sync.Synchronize(ctx, false)
	})

	switch {
	case errors.Is(err, syncer.ErrInFlight):
		slog.Warn("Scheduled sync skipped, previous run still in flight", "run_id", runID)
	case err != nil:
		slog.Error("Scheduled sync failed",
			"run_id", runID,
			"duration_ms", time.Since(started).Milliseconds(),
			"error", err,
		)
	default:
		slog.Debug("Scheduled sync finished",
			"run_id", runID,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
}
