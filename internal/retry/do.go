package retry

import (
	"context"
	"time"
)

// Do runs fn until it succeeds, the policy's retries are exhausted, permanent
// reports the error as not worth retrying, or ctx is done. onRetry, when set, is
// called before each retry with the 1-based retry number and the error that
// triggered it. The last error is returned unwrapped so callers can inspect it.
func Do(ctx context.Context, p Policy, fn func() error, permanent func(error) bool, onRetry func(int, error)) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			if onRetry != nil {
				onRetry(attempt, lastErr)
			}
			t := time.NewTimer(p.Delay(attempt))
			select {
			case <-ctx.Done():
				t.Stop()
				return lastErr
			case <-t.C:
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if permanent != nil && permanent(err) {
			return err
		}
	}
	return lastErr
}
