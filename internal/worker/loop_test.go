package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datenstrom/datenstrom-go/internal/transport/dev"
	"github.com/datenstrom/datenstrom-go/internal/worker"
)

func TestLoopProcessesEveryMessageIncludingFailures(t *testing.T) {
	source := dev.NewSource(10)
	source.Push([]byte("ok-1"))
	source.Push([]byte("fail"))
	source.Push([]byte("ok-2"))

	var mu sync.Mutex
	var processed []string

	ctx, cancel := context.WithCancel(context.Background())
	loop := &worker.Loop{
		Source:      source,
		BatchSize:   10,
		Counter:     worker.NewErrorCounter(nil),
		IdleBackoff: 5 * time.Millisecond,
		Process: func(_ context.Context, body []byte) error {
			mu.Lock()
			processed = append(processed, string(body))
			mu.Unlock()
			if string(body) == "fail" {
				return errors.New("boom")
			}
			return nil
		},
	}

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"ok-1", "fail", "ok-2"}, processed)
}

func TestErrorCounterBailsAfterBudgetExceeded(t *testing.T) {
	var bailed int
	counter := worker.NewErrorCounterWithHandler(nil, func() { bailed++ })

	for i := 0; i < 10; i++ {
		counter.CountErr()
	}
	require.Equal(t, 0, bailed, "budget should not trip at exactly the limit")

	counter.CountErr()
	require.Equal(t, 1, bailed)
}
