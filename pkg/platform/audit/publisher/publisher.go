package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "pastcheck/pkg/platform/audit"
)

// Publisher forwards audit events to a store, either synchronously or through
// a buffered channel drained by a background goroutine. Async mode trades
// delivery guarantees for latency: events are dropped when the buffer is full
// rather than blocking the request path.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox chan audit.Event
	done  chan struct{}
	once  sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given buffer
// size.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger for drop and store-failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher over the store. Without options it is
// synchronous.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

// Emit records an event, stamping the timestamp when unset.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, event dropped",
			"action", event.Action,
			"job_id", event.JobID.String(),
		)
	}
	return nil
}

// Close drains buffered events and stops the background goroutine. Safe to
// call more than once.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox == nil {
			close(p.done)
			return
		}
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed",
				"action", event.Action,
				"error", err.Error(),
			)
		}
	}
}
