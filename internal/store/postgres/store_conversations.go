package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"leadchat-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Conversation Methods ---

// AppendConversation appends messages to the lead's latest transcript, creating one if needed.
func (s *PostgresStore) AppendConversation(ctx context.Context, leadID uuid.UUID, messages []models.Message) (*models.Conversation, error) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation messages: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("database error starting transaction: %w", mapError(err))
	}
	defer tx.Rollback(ctx) // No-op after commit

	var conversationID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM conversations
		WHERE lead_id = $1
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE`, leadID).Scan(&conversationID)

	var row pgx.Row
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		row = tx.QueryRow(ctx, `
			INSERT INTO conversations (id, lead_id, messages)
			VALUES ($1, $2, $3::jsonb)
			RETURNING id, lead_id, messages, created_at, updated_at`,
			uuid.New(), leadID, payload)
	case err != nil:
		s.logger.Error("AppendConversation: failed to lock latest conversation", "lead_id", leadID, "error", err)
		return nil, fmt.Errorf("database error fetching conversation: %w", mapError(err))
	default:
		row = tx.QueryRow(ctx, `
			UPDATE conversations
			SET messages = messages || $2::jsonb, updated_at = NOW()
			WHERE id = $1
			RETURNING id, lead_id, messages, created_at, updated_at`,
			conversationID, payload)
	}

	conv, err := scanConversation(row)
	if err != nil {
		s.logger.Error("AppendConversation: failed exec/scan", "lead_id", leadID, "error", err)
		return nil, fmt.Errorf("database error writing conversation: %w", mapError(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("database error committing conversation: %w", mapError(err))
	}
	return conv, nil
}

// ListConversationsByLead returns every transcript stored for a lead, oldest first.
func (s *PostgresStore) ListConversationsByLead(ctx context.Context, leadID uuid.UUID) ([]models.Conversation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, lead_id, messages, created_at, updated_at
		FROM conversations
		WHERE lead_id = $1
		ORDER BY created_at`, leadID)
	if err != nil {
		s.logger.Error("ListConversationsByLead: failed query", "lead_id", leadID, "error", err)
		return nil, fmt.Errorf("database error listing conversations: %w", mapError(err))
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning conversation row: %w", err)
		}
		conversations = append(conversations, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating conversation rows: %w", mapError(err))
	}
	return conversations, nil
}

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	c := &models.Conversation{}
	var raw []byte
	if err := row.Scan(&c.ID, &c.LeadID, &raw, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &c.Messages); err != nil {
		return nil, fmt.Errorf("failed to parse conversation messages: %w", err)
	}
	return c, nil
}
