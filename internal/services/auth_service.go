package services

import (
	"context"
	"errors"
	"leadchat-backend/internal/auth"
	"log/slog"
	"time"
)

// Custom errors for auth service
var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrCreatingToken      = errors.New("failed to create access token")
	ErrAdminDisabled      = errors.New("admin access is not configured")
)

// AuthService issues admin tokens for the lead dashboard.
type AuthService struct {
	verifier   *auth.PasswordVerifier
	jwtSecret  string
	expiration time.Duration
	logger     *slog.Logger
}

// NewAuthService creates an AuthService. A nil verifier disables login.
func NewAuthService(verifier *auth.PasswordVerifier, jwtSecret string, expiration time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		verifier:   verifier,
		jwtSecret:  jwtSecret,
		expiration: expiration,
		logger:     logger.With("component", "AuthService"),
	}
}

// Enabled reports whether an admin password is configured.
func (s *AuthService) Enabled() bool {
	return s.verifier != nil
}

// Login verifies the shared admin password and returns an access token.
func (s *AuthService) Login(ctx context.Context, password string) (string, time.Time, error) {
	if s.verifier == nil {
		return "", time.Time{}, ErrAdminDisabled
	}
	if password == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}

	ok, err := s.verifier.Verify(password)
	if err != nil {
		s.logger.Error("Error comparing admin password hash", "error", err)
	}
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := auth.NewAccessToken(auth.RoleAdmin, auth.RoleAdmin, s.jwtSecret, s.expiration)
	if err != nil {
		s.logger.Error("Error generating admin JWT", "error", err)
		return "", time.Time{}, ErrCreatingToken
	}

	s.logger.Info("Admin logged in")
	return token, expiresAt, nil
}
