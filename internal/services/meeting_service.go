package services

import (
	"context"
	"errors"
	"fmt"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/store"
	"log/slog"
	"strings"
)

// CalendarEventInviteeCreated is the only booking event that creates a meeting.
const CalendarEventInviteeCreated = "INVITEE_CREATED"

const DefaultMeetingListLimit = 100

// MeetingService handles meetings booked with leads.
type MeetingService struct {
	store  store.Store
	leads  *LeadService
	logger *slog.Logger
}

func NewMeetingService(s store.Store, leads *LeadService, logger *slog.Logger) *MeetingService {
	return &MeetingService{
		store:  s,
		leads:  leads,
		logger: logger.With("component", "MeetingService"),
	}
}

// CreateForLead records a pending meeting for an existing lead.
func (s *MeetingService) CreateForLead(ctx context.Context, email string, req models.CreateMeetingRequest) (*models.Meeting, error) {
	lead, err := s.leads.GetLeadByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	m, err := s.store.CreateMeeting(ctx, store.CreateMeetingParams{
		LeadID:          &lead.ID,
		ExternalEventID: optional(req.ExternalEventID),
		ScheduledAt:     req.ScheduledAt,
		Status:          models.MeetingStatusPending,
		MeetingURL:      optional(req.MeetingURL),
		Notes:           optional(req.Notes),
	})
	if err != nil {
		s.logger.Error("Creating meeting failed", "email", lead.Email, "error", err)
		return nil, mapStoreError(err, nil)
	}
	return m, nil
}

// HandleBooking applies a calendar webhook. Events other than INVITEE_CREATED are
// acknowledged without a write and return a nil meeting. Bookings are keyed by the
// external event id, so redelivery returns the meeting created the first time.
func (s *MeetingService) HandleBooking(ctx context.Context, req models.CalendarWebhookRequest) (*models.Meeting, error) {
	if req.Event != CalendarEventInviteeCreated {
		s.logger.Debug("Ignoring calendar event", "event", req.Event)
		return nil, nil
	}

	p := req.Payload
	if p.ScheduledEvent == nil || strings.TrimSpace(p.ScheduledEvent.UID) == "" {
		return nil, fmt.Errorf("%w: scheduled_event.uid is required", ErrValidation)
	}

	params := store.CreateMeetingParams{
		ExternalEventID: optional(p.ScheduledEvent.UID),
		ScheduledAt:     p.ScheduledEvent.StartTime,
		Status:          models.MeetingStatusConfirmed,
		MeetingURL:      optional(firstNonEmpty(p.Location, p.ScheduledEvent.Location)),
		Notes:           optional(fmt.Sprintf("Calendar booking: %s (%s)", p.Name, p.Email)),
	}

	// Link to the lead when the invitee is already known; bookings from strangers
	// are still recorded.
	if p.Email != "" {
		lead, err := s.leads.GetLeadByEmail(ctx, p.Email)
		switch {
		case err == nil:
			params.LeadID = &lead.ID
		case errors.Is(err, ErrLeadNotFound), errors.Is(err, ErrValidation):
		default:
			return nil, err
		}
	}

	m, err := s.store.CreateMeeting(ctx, params)
	if err != nil {
		s.logger.Error("Recording calendar booking failed", "external_event_id", p.ScheduledEvent.UID, "error", err)
		return nil, mapStoreError(err, nil)
	}
	s.logger.Info("Calendar booking recorded", "meeting_id", m.ID, "external_event_id", p.ScheduledEvent.UID)
	return m, nil
}

// List returns meetings across all leads, soonest first.
func (s *MeetingService) List(ctx context.Context) ([]models.Meeting, error) {
	meetings, err := s.store.ListMeetings(ctx, DefaultMeetingListLimit)
	if err != nil {
		return nil, mapStoreError(err, nil)
	}
	return meetings, nil
}

// ListByLead returns the meetings of the lead with this email.
func (s *MeetingService) ListByLead(ctx context.Context, email string) ([]models.Meeting, error) {
	lead, err := s.leads.GetLeadByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	meetings, err := s.store.ListMeetingsByLead(ctx, lead.ID)
	if err != nil {
		return nil, mapStoreError(err, nil)
	}
	return meetings, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
