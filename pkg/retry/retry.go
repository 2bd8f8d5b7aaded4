// Package retry provides the backoff policy used around transport
// calls: exponential delay, fixed attempt budget, last error returned.
package retry

import (
	"context"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
)

// DefaultBase is the first backoff delay; it doubles per attempt.
const DefaultBase = 200 * time.Millisecond

// Do runs fn up to attempts times, sleeping base×2^n between failures.
// It returns nil on the first success, the last error once the budget
// is exhausted, or ctx.Err() if the context ends while waiting.
func Do(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			logger.Error("retries exhausted", "attempts", attempts, "error", err)
			return err
		}
		delay := base << (attempt - 1)
		logger.Warn("attempt failed, backing off", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
