package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/medpal-health/medpal/pkg/monitoring"
)

// Broadcaster fans a dispatched notification out to live listeners
// (the websocket feed). Implementations must not block.
type Broadcaster interface {
	Broadcast(v any)
}

// Dispatcher composes and sends notifications over the channels a Data
// record asks for. Senders are injected so tests can run without transports.
type Dispatcher struct {
	sms    SMSSender
	email  EmailSender
	repo   *Repository // optional, best-effort log
	feed   Broadcaster // optional
	logger *slog.Logger
}

func NewDispatcher(sms SMSSender, email EmailSender, repo *Repository, feed Broadcaster, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sms: sms, email: email, repo: repo, feed: feed, logger: logger}
}

// FeedEvent is what live listeners receive for every send attempt.
type FeedEvent struct {
	Kind      Kind      `json:"kind"`
	UserID    string    `json:"user_id"`
	Medicine  string    `json:"medicine,omitempty"`
	Result    Result    `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// Send dispatches one notification. The returned slice holds one Result per
// transport attempted, in the order [sms, email] when both are requested.
// One transport failing does not block the other.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, data Data) []Result {
	msg, err := Compose(kind, data)
	if err != nil {
		d.logger.Error("compose notification", "kind", kind, "user_id", data.UserID, "error", err)
		return nil
	}

	channel := data.Channel
	// Low-stock alerts ignore the delivery preference and go out on both
	// transports.
	if kind == KindLowStock {
		channel = ChannelBoth
	}

	results := make([]Result, 0, 2)
	if channel == ChannelSMS || channel == ChannelBoth {
		res := d.sms.SendSMS(ctx, data.UserPhone, msg.SMSText)
		d.record(ctx, kind, data, data.UserPhone, res)
		results = append(results, res)
	}
	if channel == ChannelEmail || channel == ChannelBoth {
		res := d.email.SendEmail(ctx, data.UserEmail, msg.EmailSubject, msg.EmailHTML)
		d.record(ctx, kind, data, data.UserEmail, res)
		results = append(results, res)
	}
	return results
}

// SuccessCount counts successful results in a dispatch outcome.
func SuccessCount(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

func (d *Dispatcher) record(ctx context.Context, kind Kind, data Data, recipient string, res Result) {
	monitoring.CountNotification(string(res.Channel), res.Success)

	if !res.Success {
		d.logger.Warn("notification send failed",
			"kind", kind, "channel", res.Channel, "user_id", data.UserID, "reason", res.Message)
	}

	if d.repo != nil {
		rec := &Record{
			UserID:    data.UserID,
			Recipient: recipient,
			Channel:   res.Channel,
			Kind:      kind,
			Status:    StatusFailed,
			Detail:    res.Message,
		}
		if res.Success {
			rec.Status = StatusSent
		}
		if err := d.repo.Create(ctx, rec); err != nil {
			d.logger.Warn("persist notification record", "error", err)
		}
	}

	if d.feed != nil {
		d.feed.Broadcast(FeedEvent{
			Kind:      kind,
			UserID:    data.UserID,
			Medicine:  data.MedicineName,
			Result:    res,
			Timestamp: time.Now().UTC(),
		})
	}
}
