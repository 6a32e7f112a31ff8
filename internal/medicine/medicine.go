package medicine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("medicine not found")

// Medicine is a medication a user tracks. Deleting deactivates rather than
// removes, so historical reminders keep their join target.
type Medicine struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Frequency string    `json:"frequency,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository handles database operations for medicines.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New().String()
	m.IsActive = true
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	query := `
		INSERT INTO medicines (id, user_id, name, dosage, frequency, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.UserID, m.Name, m.Dosage, m.Frequency, m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

// ListByUser returns a user's active medicines, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*Medicine, error) {
	query := `
		SELECT id, user_id, name, dosage, frequency, is_active, created_at, updated_at
		FROM medicines
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var medicines []*Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		medicines = append(medicines, &m)
	}
	return medicines, rows.Err()
}

// Update changes name, dosage or frequency for a medicine the user owns.
func (r *Repository) Update(ctx context.Context, userID, id string, m *Medicine) error {
	query := `
		UPDATE medicines SET name = $3, dosage = $4, frequency = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, m.Name, m.Dosage, m.Frequency, time.Now().UTC())
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// Deactivate soft-deletes a medicine the user owns.
func (r *Repository) Deactivate(ctx context.Context, userID, id string) error {
	query := `
		UPDATE medicines SET is_active = FALSE, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, time.Now().UTC())
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
