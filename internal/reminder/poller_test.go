package reminder

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/medpal-health/medpal/internal/notify"
)

type mockStore struct {
	due      []*Detail
	overdue  []*Detail
	lowStock []*InventoryItem

	dueErr      error
	overdueErr  error
	lowStockErr error

	dueFrom, dueTo time.Time
	overdueBefore  time.Time
	lowStockCalls  int

	notified        map[string]time.Time
	missed          map[string]time.Time
	markNotifiedErr map[string]error
}

func newMockStore() *mockStore {
	return &mockStore{
		notified:        map[string]time.Time{},
		missed:          map[string]time.Time{},
		markNotifiedErr: map[string]error{},
	}
}

func (m *mockStore) DueReminders(_ context.Context, from, to time.Time) ([]*Detail, error) {
	m.dueFrom, m.dueTo = from, to
	return m.due, m.dueErr
}

func (m *mockStore) OverdueReminders(_ context.Context, before time.Time) ([]*Detail, error) {
	m.overdueBefore = before
	return m.overdue, m.overdueErr
}

func (m *mockStore) LowStockItems(context.Context) ([]*InventoryItem, error) {
	m.lowStockCalls++
	return m.lowStock, m.lowStockErr
}

func (m *mockStore) MarkNotified(_ context.Context, id string, at time.Time) error {
	if err := m.markNotifiedErr[id]; err != nil {
		return err
	}
	m.notified[id] = at
	return nil
}

func (m *mockStore) MarkMissed(_ context.Context, id string, at time.Time) error {
	m.missed[id] = at
	return nil
}

type sentCall struct {
	kind notify.Kind
	data notify.Data
}

type fakeNotifier struct {
	calls []sentCall
}

func (f *fakeNotifier) Send(_ context.Context, kind notify.Kind, data notify.Data) []notify.Result {
	f.calls = append(f.calls, sentCall{kind: kind, data: data})
	return []notify.Result{
		{Success: true, Message: "sms sent", Channel: notify.ChannelSMS},
		{Success: true, Message: "email sent", Channel: notify.ChannelEmail},
	}
}

func testDetail(id string, scheduled time.Time) *Detail {
	d := &Detail{
		MedicineName: "Aspirin",
		Dosage:       "100mg",
		UserName:     "Jordan",
		UserEmail:    "jordan@example.com",
		UserPhone:    "15550100",
	}
	d.ID = id
	d.UserID = "user-1"
	d.ScheduledTime = scheduled
	d.Status = StatusPending
	return d
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCheckDueReminders(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Minute)
	stale := now.Add(-10 * time.Minute)

	tests := []struct {
		name       string
		details    []*Detail
		queryErr   error
		wantSent   []string
		wantMarked []string
	}{
		{
			name:       "fresh reminder is notified and stamped",
			details:    []*Detail{testDetail("r1", now.Add(3*time.Minute))},
			wantSent:   []string{"r1"},
			wantMarked: []string{"r1"},
		},
		{
			name: "recently notified reminder is skipped",
			details: []*Detail{
				func() *Detail {
					d := testDetail("r1", now)
					d.LastNotifiedAt = &recent
					return d
				}(),
			},
		},
		{
			name: "reminder past the renotify interval fires again",
			details: []*Detail{
				func() *Detail {
					d := testDetail("r1", now)
					d.LastNotifiedAt = &stale
					return d
				}(),
			},
			wantSent:   []string{"r1"},
			wantMarked: []string{"r1"},
		},
		{
			name:     "query error sends nothing",
			details:  []*Detail{testDetail("r1", now)},
			queryErr: errors.New("connection refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			store.due = tt.details
			store.dueErr = tt.queryErr
			notifier := &fakeNotifier{}

			p := NewPoller(store, notifier, nil, slog.Default(), Config{}).WithClock(fixedClock(now))
			p.CheckDueReminders(context.Background())

			if got, want := len(notifier.calls), len(tt.wantSent); got != want {
				t.Fatalf("sent %d notifications, want %d", got, want)
			}
			for i, id := range tt.wantSent {
				call := notifier.calls[i]
				if call.kind != notify.KindRoutine {
					t.Errorf("call %d kind = %s, want %s", i, call.kind, notify.KindRoutine)
				}
				if call.data.Channel != notify.ChannelBoth {
					t.Errorf("call %d channel = %s, want %s", i, call.data.Channel, notify.ChannelBoth)
				}
				if _, ok := store.notified[id]; !ok {
					t.Errorf("reminder %s not marked notified", id)
				}
			}
			if len(store.notified) != len(tt.wantMarked) {
				t.Errorf("marked %d reminders notified, want %d", len(store.notified), len(tt.wantMarked))
			}
			if len(store.missed) != 0 {
				t.Errorf("due scan marked %d reminders missed", len(store.missed))
			}
		})
	}
}

func TestCheckDueRemindersWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	notifier := &fakeNotifier{}

	p := NewPoller(store, notifier, nil, slog.Default(), Config{DueWindow: 5 * time.Minute}).
		WithClock(fixedClock(now))
	p.CheckDueReminders(context.Background())

	if !store.dueFrom.Equal(now) {
		t.Errorf("window start = %v, want %v", store.dueFrom, now)
	}
	if want := now.Add(5 * time.Minute); !store.dueTo.Equal(want) {
		t.Errorf("window end = %v, want %v", store.dueTo, want)
	}
}

func TestCheckDueRemindersMarkErrorIsolation(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	store := newMockStore()
	store.due = []*Detail{
		testDetail("r1", now),
		testDetail("r2", now.Add(time.Minute)),
	}
	store.markNotifiedErr["r1"] = errors.New("row lock timeout")
	notifier := &fakeNotifier{}

	p := NewPoller(store, notifier, nil, slog.Default(), Config{}).WithClock(fixedClock(now))
	p.CheckDueReminders(context.Background())

	// The failing record must not stop the scan.
	if len(notifier.calls) != 2 {
		t.Fatalf("sent %d notifications, want 2", len(notifier.calls))
	}
	if _, ok := store.notified["r2"]; !ok {
		t.Error("second reminder not marked notified")
	}
}

func TestCheckMissedReminders(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	store := newMockStore()
	store.overdue = []*Detail{testDetail("r1", now.Add(-16 * time.Minute))}
	notifier := &fakeNotifier{}

	p := NewPoller(store, notifier, nil, slog.Default(), Config{MissedAfter: 15 * time.Minute}).
		WithClock(fixedClock(now))
	p.CheckMissedReminders(context.Background())

	if want := now.Add(-15 * time.Minute); !store.overdueBefore.Equal(want) {
		t.Errorf("overdue cutoff = %v, want %v", store.overdueBefore, want)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(notifier.calls))
	}
	if notifier.calls[0].kind != notify.KindMissed {
		t.Errorf("kind = %s, want %s", notifier.calls[0].kind, notify.KindMissed)
	}
	if _, ok := store.missed["r1"]; !ok {
		t.Error("reminder not marked missed")
	}
}

func TestCheckMissedRemindersQueryError(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	store := newMockStore()
	store.overdue = []*Detail{testDetail("r1", now.Add(-time.Hour))}
	store.overdueErr = errors.New("connection refused")
	notifier := &fakeNotifier{}

	p := NewPoller(store, notifier, nil, slog.Default(), Config{}).WithClock(fixedClock(now))
	p.CheckMissedReminders(context.Background())

	if len(notifier.calls) != 0 {
		t.Errorf("sent %d notifications after query error, want 0", len(notifier.calls))
	}
	if len(store.missed) != 0 {
		t.Errorf("marked %d reminders missed after query error, want 0", len(store.missed))
	}
}

func TestCheckLowStockItems(t *testing.T) {
	item := &InventoryItem{
		ID:                "i1",
		UserID:            "user-1",
		MedicineName:      "Metformin",
		StockQuantity:     2,
		LowStockThreshold: 5,
		UserName:          "Jordan",
		UserEmail:         "jordan@example.com",
		UserPhone:         "15550100",
	}

	t.Run("skips before the scan hour", func(t *testing.T) {
		store := newMockStore()
		store.lowStock = []*InventoryItem{item}
		notifier := &fakeNotifier{}

		early := time.Date(2025, 3, 10, 8, 59, 0, 0, time.UTC)
		hour := 9
		p := NewPoller(store, notifier, nil, slog.Default(), Config{LowStockHour: &hour}).
			WithClock(fixedClock(early))
		p.CheckLowStockItems(context.Background())

		if store.lowStockCalls != 0 {
			t.Errorf("queried inventory %d times before scan hour, want 0", store.lowStockCalls)
		}
	})

	t.Run("explicit midnight hour is honored", func(t *testing.T) {
		store := newMockStore()
		store.lowStock = []*InventoryItem{item}
		notifier := &fakeNotifier{}

		justPastMidnight := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)
		midnight := 0
		p := NewPoller(store, notifier, nil, slog.Default(), Config{LowStockHour: &midnight}).
			WithClock(fixedClock(justPastMidnight))
		p.CheckLowStockItems(context.Background())

		if store.lowStockCalls != 1 {
			t.Errorf("queried inventory %d times at 00:30 with hour 0, want 1", store.lowStockCalls)
		}
	})

	t.Run("runs at most once per day", func(t *testing.T) {
		store := newMockStore()
		store.lowStock = []*InventoryItem{item}
		notifier := &fakeNotifier{}

		clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		p := NewPoller(store, notifier, nil, slog.Default(), Config{}).
			WithClock(func() time.Time { return clock })

		p.CheckLowStockItems(context.Background())
		clock = clock.Add(time.Minute)
		p.CheckLowStockItems(context.Background())
		clock = clock.Add(5 * time.Hour)
		p.CheckLowStockItems(context.Background())

		if store.lowStockCalls != 1 {
			t.Errorf("queried inventory %d times in one day, want 1", store.lowStockCalls)
		}
		if len(notifier.calls) != 1 {
			t.Fatalf("sent %d notifications, want 1", len(notifier.calls))
		}
		call := notifier.calls[0]
		if call.kind != notify.KindLowStock {
			t.Errorf("kind = %s, want %s", call.kind, notify.KindLowStock)
		}
		if call.data.CurrentStock != 2 || call.data.Threshold != 5 {
			t.Errorf("stock fields = %d/%d, want 2/5", call.data.CurrentStock, call.data.Threshold)
		}

		// The next day re-arms the scan.
		clock = time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
		p.CheckLowStockItems(context.Background())
		if store.lowStockCalls != 2 {
			t.Errorf("queried inventory %d times across two days, want 2", store.lowStockCalls)
		}
	})

	t.Run("query error keeps the day eligible", func(t *testing.T) {
		store := newMockStore()
		store.lowStockErr = errors.New("connection refused")
		notifier := &fakeNotifier{}

		clock := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		p := NewPoller(store, notifier, nil, slog.Default(), Config{}).
			WithClock(func() time.Time { return clock })

		p.CheckLowStockItems(context.Background())

		store.lowStockErr = nil
		store.lowStock = []*InventoryItem{item}
		clock = clock.Add(time.Minute)
		p.CheckLowStockItems(context.Background())

		if store.lowStockCalls != 2 {
			t.Errorf("queried inventory %d times, want a retry after the error", store.lowStockCalls)
		}
		if len(notifier.calls) != 1 {
			t.Errorf("sent %d notifications, want 1 from the retry", len(notifier.calls))
		}
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.DueWindow != 5*time.Minute {
		t.Errorf("DueWindow = %v, want 5m", cfg.DueWindow)
	}
	if cfg.MissedAfter != 15*time.Minute {
		t.Errorf("MissedAfter = %v, want 15m", cfg.MissedAfter)
	}
	if cfg.RenotifyInterval != 5*time.Minute {
		t.Errorf("RenotifyInterval = %v, want 5m", cfg.RenotifyInterval)
	}
	if cfg.LowStockHour == nil || *cfg.LowStockHour != 9 {
		t.Errorf("LowStockHour = %v, want 9", cfg.LowStockHour)
	}

	midnight := 0
	custom := Config{DueWindow: time.Minute, RenotifyInterval: time.Hour, LowStockHour: &midnight}.withDefaults()
	if custom.DueWindow != time.Minute || custom.RenotifyInterval != time.Hour {
		t.Error("explicit values must survive withDefaults")
	}
	if *custom.LowStockHour != 0 {
		t.Errorf("explicit midnight collapsed to %d", *custom.LowStockHour)
	}
}
