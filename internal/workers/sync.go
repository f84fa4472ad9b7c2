// Package workers runs background jobs of the CLI process.
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/runreward/runreward/internal/logging"
	"github.com/runreward/runreward/internal/services"
)

type Syncer interface {
	MigrateFromLocal(ctx context.Context) (services.Snapshot, error)
}

// SyncWorker copies the primary store to the mirror every interval. A zero
// interval disables it.
type SyncWorker struct {
	syncer   Syncer
	interval time.Duration
	log      logging.Logger
	sched    gocron.Scheduler
}

func NewSyncWorker(syncer Syncer, interval time.Duration, log logging.Logger) *SyncWorker {
	return &SyncWorker{syncer: syncer, interval: interval, log: log}
}

func (w *SyncWorker) Enabled() bool { return w.interval > 0 }

// Start schedules the job, running it once right away. Runs never overlap;
// a tick that finds the previous run still going is skipped.
func (w *SyncWorker) Start(ctx context.Context) error {
	if !w.Enabled() {
		w.log.Debug(ctx, "sync worker disabled")
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.run(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	sched.Start()
	w.sched = sched
	w.log.Info(ctx, "sync worker started", "interval", w.interval.String())
	return nil
}

func (w *SyncWorker) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := w.syncer.MigrateFromLocal(ctx); err != nil {
		w.log.Error(ctx, "scheduled sync failed", "error", err)
	}
}

// Stop waits for a running sync to finish and stops the scheduler.
func (w *SyncWorker) Stop() error {
	if w.sched == nil {
		return nil
	}
	err := w.sched.Shutdown()
	w.sched = nil
	return err
}
