package postgres

import (
	"context"
	"errors"
	"fmt"
	"leadchat-backend/internal/models"
	"leadchat-backend/internal/store"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Lead Methods ---

const leadColumns = `id, email, name, phone, company, website, interests, notes, source, created_at, updated_at`

const insertLeadQuery = `
	INSERT INTO leads (id, email, name, phone, company, website, interests, notes, source)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (email) DO NOTHING
	RETURNING ` + leadColumns

const updateLeadQuery = `
	UPDATE leads SET
		name       = $2,
		phone      = $3,
		company    = $4,
		website    = $5,
		interests  = $6,
		notes      = $7,
		updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
	WHERE id = $1
	RETURNING ` + leadColumns

// UpsertLead inserts a lead or merges the candidate into the existing row for its email.
//
// The insert runs first with ON CONFLICT DO NOTHING; it waits on any uncommitted insert
// of the same email. When the row already exists it is locked with FOR UPDATE and
// merged with store.MergeLead, so change detection always compares against the latest
// committed version.
func (s *PostgresStore) UpsertLead(ctx context.Context, arg store.UpsertLeadParams) (*store.UpsertLeadResult, error) {
	s.logger.Debug("UpsertLead called", "email", arg.Email)

	if arg.ID == uuid.Nil {
		arg.ID = uuid.New()
	}
	if arg.Source == "" {
		arg.Source = models.LeadSourceChatbot
	}

	var result *store.UpsertLeadResult
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		candidate := store.NewLeadFromParams(arg, time.Now())
		lead, err := scanLead(tx.QueryRow(ctx, insertLeadQuery,
			candidate.ID,
			candidate.Email,
			candidate.Name,
			candidate.Phone,
			candidate.Company,
			candidate.Website,
			candidate.Interests,
			candidate.Notes,
			candidate.Source,
		))
		if err == nil {
			result = &store.UpsertLeadResult{Lead: lead, Created: true, Changed: true}
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		existing, err := scanLead(tx.QueryRow(ctx,
			`SELECT `+leadColumns+` FROM leads WHERE email = $1 FOR UPDATE`, arg.Email))
		if err != nil {
			return err
		}
		merged, changed := store.MergeLead(*existing, arg, time.Now())
		lead, err = scanLead(tx.QueryRow(ctx, updateLeadQuery,
			existing.ID,
			merged.Name,
			merged.Phone,
			merged.Company,
			merged.Website,
			merged.Interests,
			merged.Notes,
		))
		if err != nil {
			return err
		}
		result = &store.UpsertLeadResult{Lead: lead, Changed: changed}
		return nil
	})
	if err != nil {
		s.logger.Error("UpsertLead: failed", "email", arg.Email, "error", err)
		return nil, fmt.Errorf("database error upserting lead: %w", mapError(err))
	}

	s.logger.Debug("UpsertLead: done", "email", result.Lead.Email, "lead_id", result.Lead.ID,
		"created", result.Created, "changed", result.Changed)
	return result, nil
}

// GetLeadByEmail retrieves a lead by its normalized email.
// Returns store.ErrNotFound if the lead does not exist.
func (s *PostgresStore) GetLeadByEmail(ctx context.Context, email string) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE email = $1`

	lead, err := scanLead(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("GetLeadByEmail: failed query/scan", "email", email, "error", err)
		return nil, fmt.Errorf("database error fetching lead by email: %w", mapError(err))
	}
	return lead, nil
}

// ListLeads returns leads ordered by most recently updated first.
func (s *PostgresStore) ListLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY updated_at DESC, email LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		s.logger.Error("ListLeads: failed query", "error", err)
		return nil, fmt.Errorf("database error listing leads: %w", mapError(err))
	}
	defer rows.Close()

	leads := make([]models.Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning lead row: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating lead rows: %w", mapError(err))
	}
	return leads, nil
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	lead := &models.Lead{}
	err := row.Scan(
		&lead.ID,
		&lead.Email,
		&lead.Name,
		&lead.Phone,
		&lead.Company,
		&lead.Website,
		&lead.Interests,
		&lead.Notes,
		&lead.Source,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// nullable maps absent and empty values to SQL NULL.
func nullable(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
