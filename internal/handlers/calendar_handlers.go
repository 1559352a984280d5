package handlers

import (
	"crypto/subtle"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/services"
	"leadchat-backend/pkg/httputil"
	"log/slog"
	"net/http"
)

// WebhookSecretHeader carries the shared secret configured for calendar callbacks.
const WebhookSecretHeader = "X-Webhook-Secret"

// CalendarHandlers serves meeting listings and the booking webhook.
type CalendarHandlers struct {
	meetingService *services.MeetingService
	webhookSecret  string // Optional; checked only when set
	logger         *slog.Logger
}

func NewCalendarHandlers(meetingService *services.MeetingService, webhookSecret string, logger *slog.Logger) *CalendarHandlers {
	return &CalendarHandlers{
		meetingService: meetingService,
		webhookSecret:  webhookSecret,
		logger:         logger.With("component", "CalendarHandlers"),
	}
}

// HandleListMeetings handles GET /api/calendar.
func (h *CalendarHandlers) HandleListMeetings(w http.ResponseWriter, r *http.Request) {
	meetings, err := h.meetingService.List(r.Context())
	if err != nil {
		h.logger.Error("Listing meetings failed", "error", err)
		respondServiceError(w, err, "Failed to fetch meetings")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toMeetingsList(meetings))
}

// HandleWebhook handles POST /api/calendar/webhook.
func (h *CalendarHandlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		got := r.Header.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
			httputil.RespondError(w, http.StatusUnauthorized, "Invalid webhook secret")
			return
		}
	}

	var req models.CalendarWebhookRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	meeting, err := h.meetingService.HandleBooking(r.Context(), req)
	if err != nil {
		h.logger.Error("Calendar webhook failed", "event", req.Event, "error", err)
		respondServiceError(w, err, "Failed to create meeting")
		return
	}
	if meeting == nil {
		httputil.RespondJSON(w, http.StatusOK, models.WebhookAckResponse{Received: true})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.MeetingResult{Success: true, Meeting: models.NewMeetingResponse(meeting)})
}
