package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dondie52/agriconnect/internal/domain"
)

// Syncer is the slice of the orchestrator the scheduler drives.
type Syncer interface {
	SyncMarketPrices(ctx context.Context) domain.SyncStats
}

// SchedulerConfig tunes the sync schedule.
type SchedulerConfig struct {
	// IntervalHours is the recurring grid: runs fire at the top of every Nth
	// hour of the day in Location (e.g. 3 means 00:00, 03:00, 06:00, ...).
	IntervalHours int
	Location      *time.Location
	// BootDelay schedules one extra run shortly after Start to warm the
	// cache, independent of the hourly grid.
	BootDelay time.Duration
}

// SchedulerStatus is the introspection snapshot for ops endpoints.
type SchedulerStatus struct {
	Running bool       `json:"running"`
	NextRun *time.Time `json:"next_run"`
}

// Scheduler runs the sync orchestrator on a fixed timezone-anchored grid plus
// a one-shot warm-up run after start. It has two states, stopped and running;
// Start and Stop are idempotent.
type Scheduler struct {
	sync   Syncer
	cfg    SchedulerConfig
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	nextRun time.Time
}

// NewScheduler creates a Scheduler. A nil Location defaults to UTC and a
// non-positive interval to 3 hours.
func NewScheduler(syncer Syncer, cfg SchedulerConfig, logger *slog.Logger) *Scheduler {
	if cfg.IntervalHours <= 0 {
		cfg.IntervalHours = 3
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		sync:   syncer,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "scheduler")),
	}
}

// Start transitions the scheduler to running: it spawns the recurring grid
// loop and, when configured, the one-shot boot run. Calling Start while
// already running logs a warning and leaves the existing timers untouched.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("scheduler already running, start ignored")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.nextRun = nextOnGrid(time.Now().In(s.cfg.Location), s.cfg.IntervalHours)
	s.mu.Unlock()

	s.logger.Info("scheduler started",
		slog.Int("interval_hours", s.cfg.IntervalHours),
		slog.String("timezone", s.cfg.Location.String()),
	)

	if s.cfg.BootDelay > 0 {
		go s.bootRun(runCtx)
	}
	go s.loop(runCtx)
}

// Stop cancels the timers and transitions to stopped. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.cancel = nil
	s.running = false
	s.nextRun = time.Time{}
	s.logger.Info("scheduler stopped")
}

// TriggerSync runs the orchestrator immediately, regardless of scheduler
// state, and returns its stats. Used by manual/admin triggers.
func (s *Scheduler) TriggerSync(ctx context.Context) domain.SyncStats {
	s.logger.InfoContext(ctx, "manual sync triggered")
	return s.sync.SyncMarketPrices(ctx)
}

// Status reports whether the scheduler is running and when the next grid run
// fires.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SchedulerStatus{Running: s.running}
	if s.running && !s.nextRun.IsZero() {
		t := s.nextRun
		status.NextRun = &t
	}
	return status
}

// bootRun fires one sync shortly after start to warm the cache, independent
// of the recurring grid.
func (s *Scheduler) bootRun(ctx context.Context) {
	t := time.NewTimer(s.cfg.BootDelay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return
	case <-t.C:
		s.logger.InfoContext(ctx, "boot sync starting")
		s.runOnce(ctx)
	}
}

// loop sleeps until each grid boundary in the configured timezone and runs
// the sync there. Each run is fault-bounded so nothing can kill the loop.
func (s *Scheduler) loop(ctx context.Context) {
	for {
		next := nextOnGrid(time.Now().In(s.cfg.Location), s.cfg.IntervalHours)

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		s.nextRun = next
		s.mu.Unlock()

		t := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single sync inside a recover boundary. The orchestrator
// contract is to never fail, so stats-level errors are only logged here.
func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sync run panicked", slog.Any("panic", r))
		}
	}()

	stats := s.sync.SyncMarketPrices(ctx)
	if len(stats.Errors) > 0 {
		s.logger.WarnContext(ctx, "scheduled sync completed with errors",
			slog.String("source", string(stats.Source)),
			slog.Int("errors", len(stats.Errors)),
		)
	}
}

// nextOnGrid returns the next top-of-hour boundary after now whose hour is a
// multiple of intervalHours, in now's location.
func nextOnGrid(now time.Time, intervalHours int) time.Time {
	hour := ((now.Hour() / intervalHours) + 1) * intervalHours
	day := now
	if hour >= 24 {
		hour = 0
		day = now.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, now.Location())
}
