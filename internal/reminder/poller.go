package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/medpal-health/medpal/internal/notify"
	"github.com/medpal-health/medpal/pkg/monitoring"
)

// Store is the persistence surface the poller scans against.
type Store interface {
	DueReminders(ctx context.Context, from, to time.Time) ([]*Detail, error)
	OverdueReminders(ctx context.Context, before time.Time) ([]*Detail, error)
	LowStockItems(ctx context.Context) ([]*InventoryItem, error)
	MarkNotified(ctx context.Context, id string, at time.Time) error
	MarkMissed(ctx context.Context, id string, at time.Time) error
}

// Notifier dispatches a composed notification over the requested channels.
type Notifier interface {
	Send(ctx context.Context, kind notify.Kind, data notify.Data) []notify.Result
}

// Config holds the scan parameters. Zero values fall back to the defaults
// the product has always used.
type Config struct {
	// DueWindow is the lookahead for the due-soon scan.
	DueWindow time.Duration
	// MissedAfter is the grace period before a pending reminder counts as
	// missed.
	MissedAfter time.Duration
	// RenotifyInterval is the minimum gap between two notifications for the
	// same still-pending reminder.
	RenotifyInterval time.Duration
	// LowStockHour is the local hour from which the daily low-stock scan is
	// eligible to run. Nil means the default of 9; zero is midnight.
	LowStockHour *int
}

const defaultLowStockHour = 9

func (c Config) withDefaults() Config {
	if c.DueWindow <= 0 {
		c.DueWindow = 5 * time.Minute
	}
	if c.MissedAfter <= 0 {
		c.MissedAfter = 15 * time.Minute
	}
	if c.RenotifyInterval <= 0 {
		c.RenotifyInterval = 5 * time.Minute
	}
	if c.LowStockHour == nil {
		h := defaultLowStockHour
		c.LowStockHour = &h
	}
	return c
}

// Poller runs the three reminder scans. It owns no timer; the Scheduler
// drives it.
type Poller struct {
	store    Store
	notifier Notifier
	events   *Events
	logger   *slog.Logger
	now      func() time.Time
	cfg      Config

	// lastLowStockRun is the date cursor for the daily low-stock scan. It
	// advances only after a scan completes without a query error.
	lastLowStockRun time.Time
}

func NewPoller(store Store, notifier Notifier, events *Events, logger *slog.Logger, cfg Config) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		store:    store,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
		cfg:      cfg.withDefaults(),
	}
}

// WithClock overrides the poller's clock. Tests use it to single-step time.
func (p *Poller) WithClock(now func() time.Time) *Poller {
	p.now = now
	return p
}

// CheckDueReminders notifies for pending reminders scheduled within the due
// window. The reminder stays pending; only the renotify cursor moves, so a
// still-untaken reminder is re-notified at most once per RenotifyInterval.
func (p *Poller) CheckDueReminders(ctx context.Context) {
	start := time.Now()
	defer func() { monitoring.ObserveScan("due", time.Since(start)) }()

	now := p.now()
	due, err := p.store.DueReminders(ctx, now, now.Add(p.cfg.DueWindow))
	if err != nil {
		p.logger.Error("fetch due reminders", "error", err)
		monitoring.CountScan("due", false)
		return
	}
	monitoring.CountScan("due", true)
	if len(due) == 0 {
		return
	}
	p.logger.Info("found due reminders", "count", len(due))

	for _, d := range due {
		if d.LastNotifiedAt != nil && now.Sub(*d.LastNotifiedAt) < p.cfg.RenotifyInterval {
			continue
		}

		results := p.notifier.Send(ctx, notify.KindRoutine, detailToData(d))
		p.logger.Info("due reminder processed",
			"reminder_id", d.ID,
			"sent", notify.SuccessCount(results),
			"attempted", len(results))

		if err := p.store.MarkNotified(ctx, d.ID, now); err != nil {
			p.logger.Error("mark reminder notified", "reminder_id", d.ID, "error", err)
			continue
		}
		p.events.Emit(ctx, EventReminderDue, d)
	}
}

// CheckMissedReminders transitions pending reminders older than the grace
// period to missed and notifies the owner. This is the only place the
// pending-to-missed transition happens.
func (p *Poller) CheckMissedReminders(ctx context.Context) {
	start := time.Now()
	defer func() { monitoring.ObserveScan("missed", time.Since(start)) }()

	now := p.now()
	overdue, err := p.store.OverdueReminders(ctx, now.Add(-p.cfg.MissedAfter))
	if err != nil {
		p.logger.Error("fetch overdue reminders", "error", err)
		monitoring.CountScan("missed", false)
		return
	}
	monitoring.CountScan("missed", true)
	if len(overdue) == 0 {
		return
	}
	p.logger.Info("found missed reminders", "count", len(overdue))

	for _, d := range overdue {
		results := p.notifier.Send(ctx, notify.KindMissed, detailToData(d))
		p.logger.Info("missed reminder processed",
			"reminder_id", d.ID,
			"sent", notify.SuccessCount(results),
			"attempted", len(results))

		if err := p.store.MarkMissed(ctx, d.ID, now); err != nil {
			p.logger.Error("mark reminder missed", "reminder_id", d.ID, "error", err)
			continue
		}
		p.events.Emit(ctx, EventReminderMissed, d)
	}
}

// CheckLowStockItems alerts owners of inventory below its threshold, at
// most once per calendar day from LowStockHour on. A query failure leaves
// the date cursor alone so the next tick retries.
func (p *Poller) CheckLowStockItems(ctx context.Context) {
	now := p.now()
	if now.Hour() < *p.cfg.LowStockHour {
		return
	}
	if sameDay(p.lastLowStockRun, now) {
		return
	}

	start := time.Now()
	defer func() { monitoring.ObserveScan("lowstock", time.Since(start)) }()

	items, err := p.store.LowStockItems(ctx)
	if err != nil {
		p.logger.Error("fetch low stock items", "error", err)
		monitoring.CountScan("lowstock", false)
		return
	}
	monitoring.CountScan("lowstock", true)

	for _, item := range items {
		results := p.notifier.Send(ctx, notify.KindLowStock, notify.Data{
			UserID:       item.UserID,
			UserName:     item.UserName,
			UserEmail:    item.UserEmail,
			UserPhone:    item.UserPhone,
			MedicineName: item.MedicineName,
			Channel:      notify.ChannelBoth,
			CurrentStock: item.StockQuantity,
			Threshold:    item.LowStockThreshold,
		})
		p.logger.Info("low stock alert processed",
			"item_id", item.ID,
			"medicine", item.MedicineName,
			"sent", notify.SuccessCount(results),
			"attempted", len(results))
		p.events.Emit(ctx, EventStockLow, item)
	}
	if len(items) > 0 {
		p.logger.Info("found low stock items", "count", len(items))
	}

	p.lastLowStockRun = now
}

func detailToData(d *Detail) notify.Data {
	return notify.Data{
		UserID:        d.UserID,
		UserName:      d.UserName,
		UserEmail:     d.UserEmail,
		UserPhone:     d.UserPhone,
		MedicineName:  d.MedicineName,
		Dosage:        d.Dosage,
		ScheduledTime: d.ScheduledTime,
		// No per-user preference lookup here; scheduled reminders always go
		// out on both channels.
		Channel: notify.ChannelBoth,
	}
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
