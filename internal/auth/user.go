package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User is the account record. PasswordHash never leaves the package.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	PasswordHash   string    `json:"-"`
	Age            *int      `json:"age,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Height         string    `json:"height,omitempty"`
	Weight         string    `json:"weight,omitempty"`
	MembershipType string    `json:"membership_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Contact is the minimal contact surface the notification core consumes.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Contact returns the user's notification contact fields.
func (u *User) Contact() Contact {
	return Contact{Name: u.Name, Email: u.Email, Phone: u.Phone}
}

const uniqueViolation = "23505"

// Repository handles database operations for users.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user. A duplicate email maps to ErrUserExists via
// the unique index, closing the check-then-insert race.
func (r *Repository) Create(ctx context.Context, u *User) error {
	u.ID = uuid.New().String()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.MembershipType == "" {
		u.MembershipType = "Gold Member"
	}

	query := `
		INSERT INTO users (id, name, email, phone, password_hash, age, gender, height, weight, membership_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash,
		u.Age, u.Gender, u.Height, u.Weight, u.MembershipType,
		u.CreatedAt, u.UpdatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return ErrUserExists
	}
	return err
}

// GetByEmail returns the user with the given email, or (nil, nil) when no
// such user exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

// GetByID returns the user with the given id, or (nil, nil).
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	query := `
		SELECT id, name, email, phone, password_hash, age, gender, height, weight, membership_type, created_at, updated_at
		FROM users ` + where
	var u User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Age, &u.Gender, &u.Height, &u.Weight, &u.MembershipType,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
