package reminder

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// orderedStore records which scan queries ran, in order.
type orderedStore struct {
	mu    sync.Mutex
	calls []string
	block chan struct{} // when set, DueReminders parks until closed
}

func (s *orderedStore) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

func (s *orderedStore) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *orderedStore) DueReminders(context.Context, time.Time, time.Time) ([]*Detail, error) {
	s.record("due")
	if s.block != nil {
		<-s.block
	}
	return nil, nil
}

func (s *orderedStore) OverdueReminders(context.Context, time.Time) ([]*Detail, error) {
	s.record("overdue")
	return nil, nil
}

func (s *orderedStore) LowStockItems(context.Context) ([]*InventoryItem, error) {
	s.record("lowstock")
	return nil, nil
}

func (s *orderedStore) MarkNotified(context.Context, string, time.Time) error { return nil }
func (s *orderedStore) MarkMissed(context.Context, string, time.Time) error   { return nil }

func TestRunOnceScanOrder(t *testing.T) {
	store := &orderedStore{}
	// Clock past the low-stock hour so all three scans run.
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	p := NewPoller(store, &fakeNotifier{}, nil, slog.Default(), Config{}).WithClock(fixedClock(now))
	s := NewScheduler(p, slog.Default(), time.Minute)

	s.RunOnce(context.Background())

	want := []string{"due", "overdue", "lowstock"}
	got := store.snapshot()
	if len(got) != len(want) {
		t.Fatalf("ran %d scans, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scan %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTickSkipsWhileBusy(t *testing.T) {
	store := &orderedStore{}
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	p := NewPoller(store, &fakeNotifier{}, nil, slog.Default(), Config{}).WithClock(fixedClock(now))
	s := NewScheduler(p, slog.Default(), time.Minute)

	s.busy.Store(true)
	s.tick(context.Background())
	if len(store.snapshot()) != 0 {
		t.Error("tick ran scans while a previous tick was marked in flight")
	}

	s.busy.Store(false)
	s.tick(context.Background())
	if len(store.snapshot()) == 0 {
		t.Error("tick did not run after the busy flag cleared")
	}
}

func TestSchedulerStartRunsImmediately(t *testing.T) {
	release := make(chan struct{})
	store := &orderedStore{block: release}
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	p := NewPoller(store, &fakeNotifier{}, nil, slog.Default(), Config{}).WithClock(fixedClock(now))
	s := NewScheduler(p, slog.Default(), time.Hour)

	s.Start(context.Background())

	deadline := time.After(2 * time.Second)
	for len(store.snapshot()) == 0 {
		select {
		case <-deadline:
			t.Fatal("no scan ran after Start")
		case <-time.After(10 * time.Millisecond):
		}
	}

	close(release)
	s.Stop()
	// Stop is idempotent.
	s.Stop()
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	store := &orderedStore{}
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	p := NewPoller(store, &fakeNotifier{}, nil, slog.Default(), Config{}).WithClock(fixedClock(now))
	s := NewScheduler(p, slog.Default(), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler loop did not exit on context cancel")
	}
}
