package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/medpal-health/medpal/pkg/bcryptutil"
)

var (
	// ErrUserExists is returned for duplicate registrations; the message is
	// deliberately specific.
	ErrUserExists = errors.New("user already exists with this email")
	// ErrInvalidCredentials covers both unknown-email and wrong-password so
	// a caller cannot probe which field was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Service handles registration and login.
type Service struct {
	users  UserStore
	hasher bcryptutil.Hasher
	tokens *TokenManager
	logger *slog.Logger
}

func NewService(users UserStore, hasher bcryptutil.Hasher, tokens *TokenManager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Age      *int   `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Height   string `json:"height,omitempty"`
	Weight   string `json:"weight,omitempty"`
}

// Register creates a user and issues a session token. The pre-check is
// advisory; the database unique index is the real uniqueness guarantee.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, string, error) {
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, "", errors.New("name, email and password are required")
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", fmt.Errorf("look up user: %w", err)
	}
	if existing != nil {
		return nil, "", ErrUserExists
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Age:          in.Age,
		Gender:       in.Gender,
		Height:       in.Height,
		Weight:       in.Weight,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !s.hasher.ComparePassword(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}
