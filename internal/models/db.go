package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead placeholder name used until a real name is captured.
const UnknownLeadName = "Unknown"

// Lead sources.
const (
	LeadSourceChatbot = "chatbot"
	LeadSourceDirect  = "direct"
	LeadSourceWebhook = "calendar"
)

// Lead represents a deduplicated contact record, unique on normalized email.
type Lead struct {
	ID        uuid.UUID `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Phone     *string   `db:"phone"`   // Nullable
	Company   *string   `db:"company"` // Nullable
	Website   *string   `db:"website"` // Nullable
	Interests []string  `db:"interests"`
	Notes     *string   `db:"notes"` // Latest non-empty summary
	Source    string    `db:"source"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Meeting statuses.
const (
	MeetingStatusPending   = "pending"
	MeetingStatusConfirmed = "confirmed"
	MeetingStatusCancelled = "cancelled"
)

// Meeting represents a booked or requested call with a lead.
type Meeting struct {
	ID              uuid.UUID  `db:"id"`
	LeadID          *uuid.UUID `db:"lead_id"`           // Nullable: webhook bookings may precede the lead
	ExternalEventID *string    `db:"external_event_id"` // Calendar provider correlation id
	ScheduledAt     *time.Time `db:"scheduled_at"`
	Status          string     `db:"status"`
	MeetingURL      *string    `db:"meeting_url"`
	Notes           *string    `db:"notes"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// Conversation stores the raw transcript captured for a lead.
type Conversation struct {
	ID        uuid.UUID `db:"id" json:"id"`
	LeadID    uuid.UUID `db:"lead_id" json:"lead_id"`
	Messages  []Message `db:"messages" json:"messages"` // Stored as JSONB
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
