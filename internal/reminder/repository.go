package reminder

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("reminder not found")
	ErrNotPending = errors.New("reminder is not pending")
)

// Repository handles database operations for reminders and inventory.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const detailColumns = `
	r.id, r.medicine_id, r.user_id, r.scheduled_time, r.status, r.taken_at, r.last_notified_at,
	r.created_at, r.updated_at,
	m.name, m.dosage,
	u.name, u.email, u.phone
`

// DueReminders returns pending reminders scheduled inside [from, to],
// earliest first.
func (r *Repository) DueReminders(ctx context.Context, from, to time.Time) ([]*Detail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM medicine_reminders r
		JOIN medicines m ON m.id = r.medicine_id
		JOIN users u ON u.id = r.user_id
		WHERE r.status = 'pending' AND r.scheduled_time >= $1 AND r.scheduled_time <= $2
		ORDER BY r.scheduled_time ASC
	`
	return r.queryDetails(ctx, query, from, to)
}

// OverdueReminders returns pending reminders scheduled before the cutoff,
// earliest first.
func (r *Repository) OverdueReminders(ctx context.Context, before time.Time) ([]*Detail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM medicine_reminders r
		JOIN medicines m ON m.id = r.medicine_id
		JOIN users u ON u.id = r.user_id
		WHERE r.status = 'pending' AND r.scheduled_time < $1
		ORDER BY r.scheduled_time ASC
	`
	return r.queryDetails(ctx, query, before)
}

func (r *Repository) queryDetails(ctx context.Context, query string, args ...any) ([]*Detail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []*Detail
	for rows.Next() {
		var d Detail
		if err := rows.Scan(
			&d.ID, &d.MedicineID, &d.UserID, &d.ScheduledTime, &d.Status, &d.TakenAt, &d.LastNotifiedAt,
			&d.CreatedAt, &d.UpdatedAt,
			&d.MedicineName, &d.Dosage,
			&d.UserName, &d.UserEmail, &d.UserPhone,
		); err != nil {
			return nil, err
		}
		details = append(details, &d)
	}
	return details, rows.Err()
}

// LowStockItems returns inventory rows below their threshold, lowest stock
// first.
func (r *Repository) LowStockItems(ctx context.Context) ([]*InventoryItem, error) {
	query := `
		SELECT i.id, i.user_id, i.medicine_name, i.stock_quantity, i.low_stock_threshold, i.expiry_date,
		       u.name, u.email, u.phone
		FROM medicine_inventory i
		JOIN users u ON u.id = i.user_id
		WHERE i.stock_quantity < i.low_stock_threshold
		ORDER BY i.stock_quantity ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(
			&it.ID, &it.UserID, &it.MedicineName, &it.StockQuantity, &it.LowStockThreshold, &it.ExpiryDate,
			&it.UserName, &it.UserEmail, &it.UserPhone,
		); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// MarkNotified stamps the renotify cursor on a reminder without changing
// its status.
func (r *Repository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE medicine_reminders SET last_notified_at = $2, updated_at = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

// MarkMissed transitions a pending reminder to missed. The status guard in
// the WHERE clause keeps taken and missed terminal.
func (r *Repository) MarkMissed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE medicine_reminders SET status = 'missed', updated_at = $2 WHERE id = $1 AND status = 'pending'`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

// MarkTaken transitions a pending reminder to taken on user action.
func (r *Repository) MarkTaken(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE medicine_reminders SET status = 'taken', taken_at = $2, updated_at = $2 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotPending
	}
	return nil
}

// Create inserts a new pending reminder for a medicine schedule.
func (r *Repository) Create(ctx context.Context, rem *Reminder) error {
	rem.ID = uuid.New().String()
	rem.Status = StatusPending
	now := time.Now().UTC()
	rem.CreatedAt = now
	rem.UpdatedAt = now

	query := `
		INSERT INTO medicine_reminders (id, medicine_id, user_id, scheduled_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		rem.ID, rem.MedicineID, rem.UserID, rem.ScheduledTime, rem.Status, rem.CreatedAt, rem.UpdatedAt,
	)
	return err
}

// ListByUser returns a user's reminders, optionally restricted to one
// calendar day, ordered by scheduled time.
func (r *Repository) ListByUser(ctx context.Context, userID string, day *time.Time) ([]*Detail, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM medicine_reminders r
		JOIN medicines m ON m.id = r.medicine_id
		JOIN users u ON u.id = r.user_id
		WHERE r.user_id = $1
	`
	args := []any{userID}
	if day != nil {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		query += ` AND r.scheduled_time >= $2 AND r.scheduled_time < $3`
		args = append(args, start, start.AddDate(0, 0, 1))
	}
	query += ` ORDER BY r.scheduled_time ASC`
	return r.queryDetails(ctx, query, args...)
}

// Get returns one reminder row without joins.
func (r *Repository) Get(ctx context.Context, id string) (*Reminder, error) {
	query := `
		SELECT id, medicine_id, user_id, scheduled_time, status, taken_at, last_notified_at, created_at, updated_at
		FROM medicine_reminders WHERE id = $1
	`
	var rem Reminder
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rem.ID, &rem.MedicineID, &rem.UserID, &rem.ScheduledTime, &rem.Status,
		&rem.TakenAt, &rem.LastNotifiedAt, &rem.CreatedAt, &rem.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rem, nil
}
