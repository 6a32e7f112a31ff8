package reminder

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medpal-health/medpal/pkg/monitoring"
)

// Scheduler drives the poller on a fixed interval. It owns its stop channel
// and guarantees ticks never overlap: a tick that fires while the previous
// one is still running is skipped, not queued.
type Scheduler struct {
	poller   *Poller
	interval time.Duration
	logger   *slog.Logger

	busy     atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(poller *Poller, logger *slog.Logger, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		poller:   poller,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// RunOnce executes the three scans in fixed order, each completing before
// the next starts.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.poller.CheckDueReminders(ctx)
	s.poller.CheckMissedReminders(ctx)
	s.poller.CheckLowStockItems(ctx)
}

// Start runs one tick immediately, then ticks on the interval until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.tick(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
	s.logger.Info("reminder scheduler started", "interval", s.interval.String())
}

// Stop halts the loop and waits for an in-flight tick to finish. Safe to
// call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		monitoring.TicksSkipped.Inc()
		s.logger.Warn("tick skipped, previous tick still running")
		return
	}
	defer s.busy.Store(false)

	s.RunOnce(ctx)
}
