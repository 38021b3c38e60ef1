package memory

import (
	"context"
	"sync"

	id "pastcheck/pkg/domain"
	audit "pastcheck/pkg/platform/audit"
)

// InMemoryStore keeps audit events in process memory. Suitable for tests and
// single-node development; production deployments use the Postgres outbox or
// the Kafka sink.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records an event.
func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByJob returns events for one job in append order.
func (s *InMemoryStore) ListByJob(ctx context.Context, jobID id.JobID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.JobID == jobID {
			out = append(out, e)
		}
	}
	return out, nil
}
