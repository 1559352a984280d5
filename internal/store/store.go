package store

import (
	"context"
	"errors"
	"leadchat-backend/internal/models"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
var ErrNotFound = errors.New("record not found")

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("store unavailable")

// UpsertLeadParams contains the candidate fields for a lead merge-upsert.
// Email must already be normalized. Nil pointers mean "not provided" and never clear a stored value.
type UpsertLeadParams struct {
	ID        uuid.UUID // Used only when a new row is inserted
	Email     string
	Name      *string // Nil or the placeholder keeps the stored name
	Phone     *string
	Company   *string
	Website   *string
	Interests []string // Normalized: lower-case, deduplicated, sorted
	Notes     *string
	Source    string // Applied on insert only
}

// UpsertLeadResult reports the merged row and what the write did.
type UpsertLeadResult struct {
	Lead    *models.Lead
	Created bool // A new row was inserted
	Changed bool // An existing row gained or replaced information (updated_at alone does not count)
}

// CreateMeetingParams contains parameters for creating a meeting.
type CreateMeetingParams struct {
	ID              uuid.UUID
	LeadID          *uuid.UUID
	ExternalEventID *string // Unique when set; repeated deliveries return the existing row
	ScheduledAt     *time.Time
	Status          string
	MeetingURL      *string
	Notes           *string
}

// Store defines the interface for lead, meeting and transcript persistence.
// Postgres backs production; the in-memory implementation backs tests and local development.
type Store interface {
	Ping(ctx context.Context) error

	// Lead operations
	UpsertLead(ctx context.Context, arg UpsertLeadParams) (*UpsertLeadResult, error)
	GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error)
	ListLeads(ctx context.Context, limit int) ([]models.Lead, error)

	// Meeting operations
	CreateMeeting(ctx context.Context, arg CreateMeetingParams) (*models.Meeting, error)
	ListMeetings(ctx context.Context, limit int) ([]models.Meeting, error)
	ListMeetingsByLead(ctx context.Context, leadID uuid.UUID) ([]models.Meeting, error)

	// Conversation operations
	AppendConversation(ctx context.Context, leadID uuid.UUID, messages []models.Message) (*models.Conversation, error)
	ListConversationsByLead(ctx context.Context, leadID uuid.UUID) ([]models.Conversation, error)
}
