package pipeline

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/doctailor/internal/rewrite"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	return rewrite.IsRetryable(err)
}

// Default retry policy for a single chunk.
const (
	MaxRetries = 3
	BaseDelay  = time.Second
	MaxDelay   = 30 * time.Second
)

// withRetry calls fn up to attempts times, backing off exponentially with
// jitter between tries. Only retryable errors are retried; the last error is
// returned as is.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error, onRetry func(n uint, err error)) error {
	if attempts <= 0 {
		attempts = 1
	}
	if delay <= 0 {
		delay = BaseDelay
	}
	if onRetry == nil {
		onRetry = func(uint, error) {}
	}
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.MaxDelay(MaxDelay),
		retry.MaxJitter(delay/2),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(onRetry),
		retry.LastErrorOnly(true),
	)
}
