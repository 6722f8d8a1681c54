package readerclient

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy controls how a query is re-attempted. The predicate decides
// which failures are worth waiting out; everything else stops the loop.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	IsRetryable func(error) bool
}

// DefaultRetryPolicy polls past "report not yet available" errors from the
// reader: 3 attempts total, waiting 2 seconds before each retry.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		IsRetryable: IsQueryError,
	}
}

type sleepFunc func(ctx context.Context, d time.Duration) error

// runWithRetry executes op under the given policy, returning the first
// success or the error of the last attempt.
func runWithRetry[T any](
	ctx context.Context,
	policy RetryPolicy,
	sleep sleepFunc,
	op func(context.Context) (T, error),
) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}
		if attempt >= policy.MaxAttempts || !policy.IsRetryable(err) {
			return zero, err
		}
		slog.Debug("readerclient: retrying query",
			"attempt", attempt,
			"maxAttempts", policy.MaxAttempts,
			"delay", policy.Delay,
			"error", err)
		if err := sleep(ctx, policy.Delay); err != nil {
			return zero, err
		}
	}
}

// sleepContext waits d without blocking cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
