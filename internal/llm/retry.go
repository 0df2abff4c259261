package llm

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultMaxAttempts is the total number of tries, first call included.
	DefaultMaxAttempts = 5

	// DefaultBaseDelay is the first backoff wait; each later wait doubles.
	DefaultBaseDelay = 2 * time.Second
)

// Retrier retries rate-limited calls with exponential backoff. Other
// errors are returned immediately.
type Retrier struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Sleep waits d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called before each backoff wait.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultRetrier waits 2s, 4s, 8s, 16s between five attempts.
func DefaultRetrier() *Retrier {
	return &Retrier{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Complete calls client.Complete under the retry policy. When every
// attempt is rate limited the error wraps ErrRetriesExhausted.
func (r *Retrier) Complete(ctx context.Context, client Client, req Request) (string, error) {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	delay := r.BaseDelay
	if delay <= 0 {
		delay = DefaultBaseDelay
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := client.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		retryAfter, limited := IsRateLimited(err)
		if !limited {
			return "", err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		wait := delay
		if retryAfter > wait {
			wait = retryAfter
		}
		if r.OnRetry != nil {
			r.OnRetry(attempt, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("waiting to retry: %w", err)
		}
		delay *= 2
	}
	return "", fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
