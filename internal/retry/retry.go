// Package retry provides a single bounded retry for the remote Iglu
// registry's outbound HTTP calls: one
// retry covers a dropped connection or a brief 5xx blip without turning a
// persistently broken dependency into a retry storm.
package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Do runs fn, retrying once after a short fixed backoff if it returns an
// error.
func Do(fn func() error) error {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 1)
	return backoff.Retry(fn, b)
}
