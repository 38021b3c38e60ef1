package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	audit "pastcheck/pkg/platform/audit"
)

// Store implements audit.Store using the transactional outbox pattern. Events
// are written to the outbox table and published to Kafka by an outbox relay;
// Kafka is the source of truth for downstream consumers.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres with the lib/pq driver and returns a store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the outbox table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_outbox (
			id UUID PRIMARY KEY,
			aggregate_id TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL,
			published BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	if err != nil {
		return fmt.Errorf("migrate audit outbox: %w", err)
	}
	return nil
}

// outboxPayload is the JSON structure relayed to Kafka. Field names match
// audit.Event for proper deserialization by the consumer.
type outboxPayload struct {
	ID        string `json:"ID"`
	Timestamp string `json:"Timestamp"`
	JobID     string `json:"JobID"`
	Action    string `json:"Action"`
	Stage     string `json:"Stage,omitempty"`
	Subject   string `json:"Subject,omitempty"`
	Reason    string `json:"Reason,omitempty"`
	RequestID string `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	payload := outboxPayload{
		ID:        eventID.String(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		JobID:     event.JobID.String(),
		Action:    event.Action,
		Stage:     event.Stage,
		Subject:   event.Subject,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, aggregate_id, occurred_at, payload)
		VALUES ($1, $2, $3, $4)`,
		eventID, event.JobID.String(), event.Timestamp, payloadBytes)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
