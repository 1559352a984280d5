package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// ChatRequest defines the body for the chat endpoints.
type ChatRequest struct {
	Message   string    `json:"message"`
	History   []Message `json:"history,omitempty"`
	LeadEmail string    `json:"leadEmail,omitempty"` // Optional hint passed to extraction
}

// LeadRequest defines the body for direct lead submission (contact form).
type LeadRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Company   string   `json:"company,omitempty"`
	Website   string   `json:"website,omitempty"`
	Interests []string `json:"interests,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Source    string   `json:"source,omitempty"`
}

// CreateMeetingRequest defines the body for creating a meeting against a lead.
type CreateMeetingRequest struct {
	ExternalEventID string     `json:"cal_com_event_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	MeetingURL      string     `json:"meeting_url,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// CalendarWebhookRequest is the booking callback sent by the scheduling provider.
type CalendarWebhookRequest struct {
	Event   string                 `json:"event"`
	Payload CalendarWebhookPayload `json:"payload"`
}

// CalendarWebhookPayload carries the invitee and event details of a booking.
type CalendarWebhookPayload struct {
	Email          string                `json:"email"`
	Name           string                `json:"name"`
	Location       string                `json:"location,omitempty"`
	ScheduledEvent *CalendarWebhookEvent `json:"scheduled_event,omitempty"`
}

// CalendarWebhookEvent identifies the booked event.
type CalendarWebhookEvent struct {
	UID       string     `json:"uid"`
	StartTime *time.Time `json:"start_time,omitempty"`
	Location  string     `json:"location,omitempty"`
}

// AdminLoginRequest defines the body for the admin login endpoint.
type AdminLoginRequest struct {
	Password string `json:"password"`
}

// --- Response Structs ---

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CompleteResponse is returned by the non-streaming chat endpoint.
type CompleteResponse struct {
	Response string `json:"response"`
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Company   *string   `json:"company,omitempty"`
	Website   *string   `json:"website,omitempty"`
	Interests []string  `json:"interests"`
	Notes     *string   `json:"notes,omitempty"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLeadResponse maps a db lead to its API representation.
func NewLeadResponse(l *Lead) LeadResponse {
	interests := l.Interests
	if interests == nil {
		interests = []string{}
	}
	return LeadResponse{
		ID:        l.ID,
		Email:     l.Email,
		Name:      l.Name,
		Phone:     l.Phone,
		Company:   l.Company,
		Website:   l.Website,
		Interests: interests,
		Notes:     l.Notes,
		Source:    l.Source,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// LeadMutationResponse is returned by POST /api/leads.
type LeadMutationResponse struct {
	Success bool          `json:"success"`
	Lead    *LeadResponse `json:"lead,omitempty"`
	Created bool          `json:"created"`
	Error   string        `json:"error,omitempty"`
}

// LeadResult wraps a single lead.
type LeadResult struct {
	Lead LeadResponse `json:"lead"`
}

// LeadsListResponse wraps a lead listing.
type LeadsListResponse struct {
	Leads []LeadResponse `json:"leads"`
}

// MeetingResponse is the API representation of a meeting.
type MeetingResponse struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          *uuid.UUID `json:"lead_id,omitempty"`
	ExternalEventID *string    `json:"cal_com_event_id,omitempty"`
	ScheduledAt     *time.Time `json:"scheduled_at,omitempty"`
	Status          string     `json:"status"`
	MeetingURL      *string    `json:"meeting_url,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewMeetingResponse maps a db meeting to its API representation.
func NewMeetingResponse(m *Meeting) MeetingResponse {
	return MeetingResponse{
		ID:              m.ID,
		LeadID:          m.LeadID,
		ExternalEventID: m.ExternalEventID,
		ScheduledAt:     m.ScheduledAt,
		Status:          m.Status,
		MeetingURL:      m.MeetingURL,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
	}
}

// MeetingResult wraps a single meeting.
type MeetingResult struct {
	Success bool            `json:"success"`
	Meeting MeetingResponse `json:"meeting"`
}

// MeetingsListResponse wraps a meeting listing.
type MeetingsListResponse struct {
	Meetings []MeetingResponse `json:"meetings"`
}

// WebhookAckResponse acknowledges webhook events that need no action.
type WebhookAckResponse struct {
	Received bool `json:"received"`
}

// ConversationsListResponse wraps the transcripts stored for a lead.
type ConversationsListResponse struct {
	Conversations []Conversation `json:"conversations"`
}

// AdminLoginResponse carries the admin access token.
type AdminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ServiceInfoResponse is the root descriptor: liveness plus configured capabilities.
type ServiceInfoResponse struct {
	Service      string            `json:"service"`
	Version      string            `json:"version"`
	Status       string            `json:"status"`
	Model        string            `json:"model,omitempty"`
	Capabilities map[string]bool   `json:"capabilities"`
	Endpoints    map[string]string `json:"endpoints"`
}

// HealthResponse reports dependency health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}
