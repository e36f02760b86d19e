package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Loop is the generic read -> process -> ack cycle shared by the raw,
// events, and errors queue workers. Every message of a batch is acked
// together once Process has run on each of them, whether or not Process
// succeeded; a crash mid-batch leaves the batch unacked, to be redelivered.
type Loop struct {
	Source    Source
	BatchSize int
	Counter   *ErrorCounter
	Process   func(ctx context.Context, body []byte) error
	Log       *logrus.Entry

	// IdleBackoff is how long to sleep after an empty read before polling
	// again, so an idle queue doesn't spin the loop.
	IdleBackoff time.Duration
}

// Run drives the loop until ctx is cancelled, returning ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	backoff := l.IdleBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgs, err := l.Source.ReadBatch(ctx, l.BatchSize)
		if err != nil {
			l.Counter.CountErr()
			if l.Log != nil {
				l.Log.WithError(err).Error("worker: read failed")
			}
			continue
		}
		if len(msgs) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			continue
		}

		for _, m := range msgs {
			if err := l.Process(ctx, m.Body); err != nil {
				l.Counter.CountErr()
				if l.Log != nil {
					l.Log.WithError(err).Error("worker: processing failed")
				}
				continue
			}
			l.Counter.CountOK()
		}

		if err := l.Source.Ack(ctx, msgs); err != nil {
			l.Counter.CountErr()
			if l.Log != nil {
				l.Log.WithError(err).Error("worker: ack failed")
			}
		}
	}
}
