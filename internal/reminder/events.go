package reminder

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType labels entries on the health-events stream.
type EventType string

const (
	EventReminderDue    EventType = "reminder.due"
	EventReminderMissed EventType = "reminder.missed"
	EventStockLow       EventType = "stock.low"
)

// Event is the envelope written to the stream.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Publisher writes a keyed message to the event stream (Kafka in
// production).
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Events emits scheduler domain events. A nil Events or a missing producer
// makes every Emit a no-op, so the poller works without a broker.
type Events struct {
	producer Publisher
	logger   *slog.Logger
}

func NewEvents(producer Publisher, logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{producer: producer, logger: logger}
}

// Emit publishes one event. Failures are logged and dropped; the stream is
// observational, not part of the reminder state machine.
func (e *Events) Emit(ctx context.Context, typ EventType, payload any) {
	if e == nil || e.producer == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Warn("marshal event payload", "type", typ, "error", err)
		return
	}

	event := Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	value, err := json.Marshal(event)
	if err != nil {
		e.logger.Warn("marshal event", "type", typ, "error", err)
		return
	}

	if err := e.producer.Publish(ctx, string(typ), value); err != nil {
		e.logger.Warn("publish event", "type", typ, "error", err)
	}
}
