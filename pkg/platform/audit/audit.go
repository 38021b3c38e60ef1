package audit

import (
	"context"
	"time"

	id "pastcheck/pkg/domain"
)

// Event is emitted from domain logic to capture key job lifecycle actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	JobID     id.JobID
	Action    string
	// Stage names the pipeline stage for stage-level events.
	Stage string
	// Subject is the searched name. Kept for compliance traceability; the
	// retention policy of the chosen store bounds how long it lives.
	Subject string
	// Reason carries the stored error message for failure events.
	Reason string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
}

// Action is the closed set of recorded lifecycle actions.
type Action string

const (
	EventSearchCreated  Action = "search_created"
	EventStageCompleted Action = "stage_completed"
	EventJobCompleted   Action = "job_completed"
	EventJobFailed      Action = "job_failed"
	EventResultExported Action = "result_exported"
)

// Store persists audit events. Implementations must be safe for concurrent
// appenders.
type Store interface {
	Append(ctx context.Context, event Event) error
}
