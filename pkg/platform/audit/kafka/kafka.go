package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "pastcheck/pkg/platform/audit"
)

// Sink implements audit.Store by producing events straight to a Kafka topic.
// Deployments that need transactional guarantees pair the Postgres outbox
// with a relay instead; the direct sink suits lower-stakes setups.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New connects a Kafka producer for the given brokers and topic.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// record is the wire form of an audit event.
type record struct {
	Timestamp string `json:"timestamp"`
	JobID     string `json:"job_id"`
	Action    string `json:"action"`
	Stage     string `json:"stage,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Append produces the event, keyed by job ID so per-job ordering holds.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(record{
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		JobID:     event.JobID.String(),
		Action:    event.Action,
		Stage:     event.Stage,
		Subject:   event.Subject,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}

	rec := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.JobID.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce audit record: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *Sink) Close() {
	s.client.Close()
}
