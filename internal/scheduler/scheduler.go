package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"docvault/internal/service"
)

const reconcileTag = "reconcile"

// Reconciler is the sweep run on every tick.
type Reconciler interface {
	Run(ctx context.Context, dryRun bool) (*service.ReconcileReport, error)
}

// Config describes the periodic reconcile job.
type Config struct {
	Log        *zap.Logger
	Reconciler Reconciler
	Interval   time.Duration
	// Timeout bounds a single sweep. Zero means the interval.
	Timeout time.Duration
}

// Scheduler runs the reconcile sweep on a fixed interval.
type Scheduler struct {
	cfg Config
	s   *gocron.Scheduler
}

// New returns nil when the interval is not positive: there is nothing to schedule.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Interval <= 0 || cfg.Reconciler == nil {
		return nil, nil
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}

	s := gocron.NewScheduler(time.UTC)
	s.SetMaxConcurrentJobs(1, gocron.WaitMode)
	s.WaitForScheduleAll()

	sch := &Scheduler{cfg: cfg, s: s}
	if _, err := s.Every(cfg.Interval).Tag(reconcileTag).SingletonMode().Do(sch.tick); err != nil {
		return nil, err
	}
	return sch, nil
}

func (sch *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), sch.cfg.Timeout)
	defer cancel()

	if _, err := sch.cfg.Reconciler.Run(ctx, false); err != nil {
		sch.cfg.Log.Error("reconcile_failed", zap.Error(err))
	}
}

// Start begins running jobs in the background.
func (sch *Scheduler) Start() {
	if sch == nil {
		return
	}
	sch.cfg.Log.Info("scheduler_started", zap.Duration("interval", sch.cfg.Interval))
	sch.s.StartAsync()
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (sch *Scheduler) Stop() {
	if sch == nil {
		return
	}
	sch.s.Stop()
	sch.cfg.Log.Info("scheduler_stopped")
}
