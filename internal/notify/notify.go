package notify

import (
	"time"
)

// Channel identifies a notification transport.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	// ChannelBoth is a delivery preference, not a transport: it expands to
	// [sms, email] at dispatch time.
	ChannelBoth Channel = "both"
)

// Kind selects which message is composed for a notification.
type Kind string

const (
	KindRoutine     Kind = "routine"
	KindCritical    Kind = "critical"
	KindMissed      Kind = "missed"
	KindAppointment Kind = "appointment"
	KindRefill      Kind = "refill"
	KindLowStock    Kind = "lowstock"
)

// Data carries everything a composer needs to build one notification.
// It is assembled per attempt and never persisted.
type Data struct {
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	UserPhone     string    `json:"userPhone"`
	MedicineName  string    `json:"medicineName"`
	Dosage        string    `json:"dosage"`
	ScheduledTime time.Time `json:"scheduledTime"`
	Channel       Channel   `json:"reminderType"`

	AppointmentDate string `json:"appointmentDate,omitempty"`
	DaysLeft        int    `json:"daysLeft,omitempty"`
	CurrentStock    int    `json:"currentStock,omitempty"`
	Threshold       int    `json:"threshold,omitempty"`
}

// Result is the outcome of one send attempt on one transport.
type Result struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Channel Channel `json:"type"`
}

// Status tracks a logged notification.
type Status string

const (
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Record is the persisted log entry for a dispatched notification.
type Record struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Recipient string     `json:"recipient"`
	Channel   Channel    `json:"channel"`
	Kind      Kind       `json:"kind"`
	Status    Status     `json:"status"`
	Detail    string     `json:"detail,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}
