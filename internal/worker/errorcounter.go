package worker

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	counterResetInterval = 60 * time.Second
	maxErrorsPerInterval = 10
)

// ErrorCounter tracks successes and failures within a rolling interval and
// invokes onExceeded if failures exceed maxErrorsPerInterval before the
// interval resets. A sink or source that is failing on nearly every call is
// assumed to be structurally broken (bad credentials, network partition,
// poisoned topic) rather than transiently flaky, and the process should be
// restarted by its supervisor rather than keep retrying forever.
type ErrorCounter struct {
	log        *logrus.Entry
	onExceeded func()

	mu          sync.Mutex
	ok          int
	errs        int
	windowStart time.Time
}

// NewErrorCounter returns an ErrorCounter that signals the current process
// with SIGINT once its error budget is exceeded.
func NewErrorCounter(log *logrus.Entry) *ErrorCounter {
	return NewErrorCounterWithHandler(log, signalSelf)
}

// NewErrorCounterWithHandler returns an ErrorCounter that calls onExceeded
// instead of signalling the process, for tests that want to exercise the
// counting logic without killing the test binary.
func NewErrorCounterWithHandler(log *logrus.Entry, onExceeded func()) *ErrorCounter {
	return &ErrorCounter{log: log, onExceeded: onExceeded, windowStart: time.Now()}
}

func signalSelf() {
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = proc.Signal(os.Interrupt)
}

// CountOK records a successful operation.
func (c *ErrorCounter) CountOK() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()
	c.ok++
}

// CountErr records a failed operation, signalling the process to shut down
// if the interval's error budget has been exhausted.
func (c *ErrorCounter) CountErr() {
	c.mu.Lock()
	c.rolloverLocked()
	c.errs++
	exceeded := c.errs > maxErrorsPerInterval
	c.mu.Unlock()

	if exceeded {
		if c.log != nil {
			c.log.Error("worker: error budget exceeded for interval, shutting down")
		}
		c.onExceeded()
	}
}

func (c *ErrorCounter) rolloverLocked() {
	if time.Since(c.windowStart) >= counterResetInterval {
		c.ok = 0
		c.errs = 0
		c.windowStart = time.Now()
	}
}
