package handlers

import (
	"context"
	"errors"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/services"
	"leadchat-backend/pkg/httputil"
	"net/http"
	"time"
)

// AuthService defines the interface expected from the auth service.
type AuthService interface {
	Login(ctx context.Context, password string) (string, time.Time, error)
}

type AuthHandler struct {
	authService AuthService
}

func NewAuthHandler(authSvc AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authSvc,
	}
}

// HandleLogin handles the POST /api/admin/login request.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.AdminLoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.Password == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Password is required")
		return
	}

	token, expiresAt, err := h.authService.Login(r.Context(), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			httputil.RespondError(w, http.StatusUnauthorized, err.Error()) // 401
		case errors.Is(err, services.ErrAdminDisabled):
			httputil.RespondError(w, http.StatusServiceUnavailable, err.Error()) // 503
		default:
			httputil.RespondError(w, http.StatusInternalServerError, "Login failed due to an internal error") // 500
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.AdminLoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}
