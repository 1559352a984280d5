package handlers

import (
	"errors"
	"leadchat-backend/internal/services"
	"leadchat-backend/pkg/httputil"
	"net/http"
	"strconv"
)

// statusForError maps service errors to HTTP status codes and client-safe messages.
// Internal error text is never returned for 5xx responses.
func statusForError(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrLeadNotFound):
		return http.StatusNotFound, "Lead not found"
	case errors.Is(err, services.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Lead store is temporarily unavailable"
	case errors.Is(err, services.ErrChatDisabled):
		return http.StatusServiceUnavailable, "Chat is not available"
	default:
		return http.StatusInternalServerError, fallback
	}
}

// respondServiceError writes the mapped error as {"error": ...}.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	status, message := statusForError(err, fallback)
	httputil.RespondError(w, status, message)
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
