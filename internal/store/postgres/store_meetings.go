package postgres

import (
	"context"
	"fmt"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Meeting Methods ---

const meetingColumns = `id, lead_id, external_event_id, scheduled_at, status, meeting_url, notes, created_at, updated_at`

// CreateMeeting inserts a meeting. A repeated external event id returns the stored row unchanged.
func (s *PostgresStore) CreateMeeting(ctx context.Context, arg store.CreateMeetingParams) (*models.Meeting, error) {
	s.logger.Debug("CreateMeeting called", "lead_id", arg.LeadID, "external_event_id", arg.ExternalEventID)
	query := `
		INSERT INTO meetings (id, lead_id, external_event_id, scheduled_at, status, meeting_url, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (external_event_id) DO UPDATE SET
			external_event_id = meetings.external_event_id
		RETURNING ` + meetingColumns

	if arg.ID == uuid.Nil {
		arg.ID = uuid.New()
	}
	status := arg.Status
	if status == "" {
		status = models.MeetingStatusPending
	}

	m, err := scanMeeting(s.db.QueryRow(ctx, query,
		arg.ID,
		arg.LeadID,
		nullable(arg.ExternalEventID),
		arg.ScheduledAt,
		status,
		nullable(arg.MeetingURL),
		nullable(arg.Notes),
	))
	if err != nil {
		s.logger.Error("CreateMeeting: failed exec/scan", "error", err)
		return nil, fmt.Errorf("database error creating meeting: %w", mapError(err))
	}
	return m, nil
}

// ListMeetings returns upcoming-first meetings across all leads.
func (s *PostgresStore) ListMeetings(ctx context.Context, limit int) ([]models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings ORDER BY scheduled_at ASC NULLS LAST, created_at LIMIT $1`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		s.logger.Error("ListMeetings: failed query", "error", err)
		return nil, fmt.Errorf("database error listing meetings: %w", mapError(err))
	}
	return collectMeetings(rows)
}

// ListMeetingsByLead returns the meetings owned by one lead.
func (s *PostgresStore) ListMeetingsByLead(ctx context.Context, leadID uuid.UUID) ([]models.Meeting, error) {
	query := `SELECT ` + meetingColumns + ` FROM meetings WHERE lead_id = $1 ORDER BY scheduled_at ASC NULLS LAST, created_at`
	rows, err := s.db.Query(ctx, query, leadID)
	if err != nil {
		s.logger.Error("ListMeetingsByLead: failed query", "lead_id", leadID, "error", err)
		return nil, fmt.Errorf("database error listing meetings for lead: %w", mapError(err))
	}
	return collectMeetings(rows)
}

func collectMeetings(rows pgx.Rows) ([]models.Meeting, error) {
	defer rows.Close()
	meetings := make([]models.Meeting, 0)
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning meeting row: %w", err)
		}
		meetings = append(meetings, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating meeting rows: %w", mapError(err))
	}
	return meetings, nil
}

func scanMeeting(row pgx.Row) (*models.Meeting, error) {
	m := &models.Meeting{}
	err := row.Scan(
		&m.ID,
		&m.LeadID,
		&m.ExternalEventID,
		&m.ScheduledAt,
		&m.Status,
		&m.MeetingURL,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}
