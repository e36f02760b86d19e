// Package dev provides an in-memory Sink/Source pair for local development
// and tests: writes go to stdout and are retained in memory, reads are
// served from an in-process queue.
package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/datenstrom/datenstrom-go/internal/worker"
)

// Sink writes every record to stdout as a JSON line and keeps the most
// recent one around for inspection through LastRecord.
type Sink struct {
	mu         sync.Mutex
	lastRecord []byte
}

// NewSink returns a ready-to-use dev Sink.
func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Write(_ context.Context, body []byte) error {
	s.mu.Lock()
	s.lastRecord = append([]byte(nil), body...)
	s.mu.Unlock()

	var pretty any
	if err := json.Unmarshal(body, &pretty); err == nil {
		out, _ := json.Marshal(pretty)
		fmt.Fprintln(os.Stdout, string(out))
	} else {
		fmt.Fprintln(os.Stdout, string(body))
	}
	return nil
}

// LastRecord returns the most recently written record, or nil if nothing
// has been written yet.
func (s *Sink) LastRecord() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRecord
}

func (s *Sink) Close() error { return nil }

// Source serves messages off an in-process buffered queue. Acking simply
// drops the message; there is no redelivery-on-crash semantics since the
// queue isn't durable.
type Source struct {
	queue chan worker.Message
}

// NewSource returns a dev Source backed by a queue of the given capacity.
func NewSource(capacity int) *Source {
	return &Source{queue: make(chan worker.Message, capacity)}
}

// Push enqueues a message body for a later ReadBatch to serve, used by
// tests to seed the source.
func (s *Source) Push(body []byte) {
	s.queue <- worker.Message{Body: body}
}

func (s *Source) ReadBatch(ctx context.Context, max int) ([]worker.Message, error) {
	var out []worker.Message
	for len(out) < max {
		select {
		case m := <-s.queue:
			out = append(out, m)
		default:
			return out, nil
		}
	}
	return out, nil
}

func (s *Source) Ack(_ context.Context, _ []worker.Message) error {
	return nil
}
