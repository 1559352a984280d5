package postgres

import (
	"context"
	"errors"
	"fmt"
	"leadchat-backend/internal/store"
	"log/slog"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger.With("component", "PostgresStore"),
	}
}

// Ping verifies that a connection can be acquired and used.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// schema is applied statement by statement at startup; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id         UUID PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL DEFAULT 'Unknown',
		phone      TEXT,
		company    TEXT,
		website    TEXT,
		interests  TEXT[] NOT NULL DEFAULT '{}',
		notes      TEXT,
		source     TEXT NOT NULL DEFAULT 'chatbot',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS leads_updated_at_idx ON leads (updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id                UUID PRIMARY KEY,
		lead_id           UUID REFERENCES leads (id) ON DELETE SET NULL,
		external_event_id TEXT UNIQUE,
		scheduled_at      TIMESTAMPTZ,
		status            TEXT NOT NULL DEFAULT 'pending'
		                  CHECK (status IN ('pending', 'confirmed', 'cancelled')),
		meeting_url       TEXT,
		notes             TEXT,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS meetings_lead_id_idx ON meetings (lead_id)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id         UUID PRIMARY KEY,
		lead_id    UUID NOT NULL REFERENCES leads (id) ON DELETE CASCADE,
		messages   JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS conversations_lead_id_idx ON conversations (lead_id, created_at)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("database error applying schema: %w", mapError(err))
		}
	}
	s.logger.Info("Schema applied", "statements", len(schema))
	return nil
}

// mapError tags connection-level failures with store.ErrUnavailable so callers can
// tell an unreachable database apart from a rejected write.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
