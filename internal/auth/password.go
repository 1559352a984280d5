package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks the shared admin password against a bcrypt hash.
type PasswordVerifier struct {
	hash []byte
}

// NewPasswordVerifier prefers a precomputed bcrypt hash; a plaintext password is
// hashed once at startup so it is never compared in the clear.
// Returns nil when neither is configured, which disables admin login.
func NewPasswordVerifier(plain, hash string) (*PasswordVerifier, error) {
	switch {
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid admin password hash: %w", err)
		}
		return &PasswordVerifier{hash: []byte(hash)}, nil
	case plain != "":
		h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		return &PasswordVerifier{hash: h}, nil
	default:
		return nil, nil
	}
}

// Verify reports whether password matches. Comparison errors other than a
// mismatch are returned so callers can log them.
func (v *PasswordVerifier) Verify(password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(v.hash, []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}
