// Package kafka implements the Sink/Source contracts on top of franz-go.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/datenstrom/datenstrom-go/internal/worker"
)

// Sink produces records to a single Kafka topic.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects to brokers and returns a Sink that produces to topic.
func NewSink(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("kafka: connecting producer: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Write(ctx context.Context, body []byte) error {
	record := &kgo.Record{Topic: s.topic, Value: body}
	result := s.client.ProduceSync(ctx, record)
	return result.FirstErr()
}

func (s *Sink) Close() error {
	s.client.Close()
	return nil
}

// Source consumes a single Kafka topic under a consumer group, committing
// offsets only for messages the caller has explicitly acked.
type Source struct {
	client *kgo.Client

	// pending holds the offsets of the batch most recently handed back by
	// ReadBatch, cleared only once Ack has been called for the whole
	// batch. A Source that is asked to read again before acking its prior
	// batch indicates a worker loop bug, since the loop contract is
	// read-then-ack-before-next-read.
	pending []*kgo.Record
}

// NewSource connects to brokers, joins group, and consumes topic.
func NewSource(brokers []string, group, topic string) (*Source, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: connecting consumer: %w", err)
	}
	return &Source{client: client}, nil
}

var errUnackedBatch = errors.New("kafka: prior batch not fully acked before next read")

func (s *Source) ReadBatch(ctx context.Context, max int) ([]worker.Message, error) {
	if len(s.pending) > 0 {
		return nil, errUnackedBatch
	}

	fetches := s.client.PollRecords(ctx, max)
	if errs := fetches.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("kafka: poll error: %v", errs[0].Err)
	}

	records := fetches.Records()
	msgs := make([]worker.Message, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, worker.Message{Body: r.Value, Handle: r})
	}
	s.pending = records
	return msgs, nil
}

func (s *Source) Ack(ctx context.Context, msgs []worker.Message) error {
	if len(msgs) != len(s.pending) {
		return fmt.Errorf("kafka: ack for %d messages does not match pending batch of %d", len(msgs), len(s.pending))
	}
	if err := s.client.CommitRecords(ctx, s.pending...); err != nil {
		return fmt.Errorf("kafka: committing offsets: %w", err)
	}
	s.pending = nil
	return nil
}
