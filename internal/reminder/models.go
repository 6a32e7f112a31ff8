package reminder

import (
	"time"
)

// Status tracks a reminder through its lifecycle. The poller only ever
// advances pending to missed; pending to taken happens on explicit user
// action through the API. Taken and missed are terminal.
type Status string

const (
	StatusPending Status = "pending"
	StatusTaken   Status = "taken"
	StatusMissed  Status = "missed"
)

// Reminder is one scheduled instance of "take this medicine at this time".
type Reminder struct {
	ID             string     `json:"id"`
	MedicineID     string     `json:"medicine_id"`
	UserID         string     `json:"user_id"`
	ScheduledTime  time.Time  `json:"scheduled_time"`
	Status         Status     `json:"status"`
	TakenAt        *time.Time `json:"taken_at,omitempty"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Detail is a reminder joined with the medicine and the owner's contact
// fields, as the scan queries return it.
type Detail struct {
	Reminder
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
	UserPhone    string `json:"user_phone"`
}

// InventoryItem is a stock row joined with its owner's contact fields.
// The poller only reads inventory; stock mutation belongs to the CRUD API.
type InventoryItem struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	MedicineName      string     `json:"medicine_name"`
	StockQuantity     int        `json:"stock_quantity"`
	LowStockThreshold int        `json:"low_stock_threshold"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty"`
	UserName          string     `json:"user_name"`
	UserEmail         string     `json:"user_email"`
	UserPhone         string     `json:"user_phone"`
}
