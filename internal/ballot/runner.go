package ballot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventClock reports when the next event starts.
type EventClock interface {
	NextEventTime(ctx context.Context) time.Time
}

// Locker guards against overlapping runs. ok is false when another run holds the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// IsDue reports whether an event starting at start is less than days away from now.
func IsDue(now, start time.Time, days int) bool {
	return start.Before(now.Add(time.Duration(days) * 24 * time.Hour))
}

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	BeforeDays int
	LockKey    string
	LockTTL    time.Duration
	Now        func() time.Time
}

// Runner applies the scheduling window and the run lock before invoking the engine.
type Runner struct {
	clock  EventClock
	engine *Engine
	locker Locker
	cfg    RunnerConfig
	logger *zap.Logger
}

// NewRunner creates a runner. locker may be nil.
func NewRunner(clock EventClock, engine *Engine, locker Locker, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	return &Runner{clock: clock, engine: engine, locker: locker, cfg: cfg, logger: logger}
}

// Run runs the ballot if the next event is within the window (or opts.Force is set)
// and no other run holds the lock.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	log := r.logger.With(zap.String("run_id", opts.RunID))

	if !opts.Force {
		start := r.clock.NextEventTime(ctx)
		if !IsDue(r.cfg.Now(), start, r.cfg.BeforeDays) {
			log.Info("next event is not within the ballot window", zap.Int("days", r.cfg.BeforeDays), zap.Time("starts_at", start))
			return &Result{RunID: opts.RunID, Status: StatusNotDue}, nil
		}
		log.Info("next event is within the ballot window", zap.Int("days", r.cfg.BeforeDays), zap.Time("starts_at", start))
	}

	if r.locker != nil {
		release, ok, err := r.locker.Acquire(ctx, r.cfg.LockKey, r.cfg.LockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			log.Warn("another ballot run holds the lock", zap.String("key", r.cfg.LockKey))
			return &Result{RunID: opts.RunID, Status: StatusLocked}, nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("release run lock failed", zap.Error(err))
			}
		}()
	}

	return r.engine.Run(ctx, opts)
}
