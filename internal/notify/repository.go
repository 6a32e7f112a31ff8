package notify

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository persists the notification log.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a log entry for a completed send attempt.
func (r *Repository) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().UTC()
	if rec.Status == StatusSent {
		now := rec.CreatedAt
		rec.SentAt = &now
	}

	query := `
		INSERT INTO notifications (id, user_id, recipient, channel, kind, status, detail, created_at, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Recipient, rec.Channel, rec.Kind, rec.Status, rec.Detail, rec.CreatedAt, rec.SentAt,
	)
	return err
}

// ListByUser returns a user's notification history, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, recipient, channel, kind, status, detail, created_at, sent_at
		FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Recipient, &rec.Channel, &rec.Kind,
			&rec.Status, &rec.Detail, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
