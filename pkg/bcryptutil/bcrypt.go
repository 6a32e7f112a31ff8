package bcryptutil

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for account passwords.
const PasswordCost = 12

// Hasher defines the interface for password hashing and verification.
type Hasher interface {
	// HashPassword returns the bcrypt hash of the password.
	HashPassword(password string) (string, error)
	// ComparePassword compares a bcrypt hash with a password. Returns true if they match.
	ComparePassword(password, hash string) bool
}

// BcryptHasher is a concrete implementation of Hasher with a fixed cost.
type BcryptHasher struct {
	cost int
}

// New returns a hasher with the standard account-password cost.
func New() *BcryptHasher {
	return &BcryptHasher{cost: PasswordCost}
}

// HashPassword generates a bcrypt hash from the given password.
func (b *BcryptHasher) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword compares a plain text password with a stored hash.
func (b *BcryptHasher) ComparePassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
