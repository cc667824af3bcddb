package retry

import (
	"context"
	"time"

	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
)

// Do runs op under the policy, retrying only errors that classify as
// retryable (forgeerr.IsRetryable). Permanent errors and context
// cancellation end the loop immediately. onRetry, when non-nil, is invoked
// before each retry sleep with the 1-based retry number and the error that
// triggered it.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, onRetry func(retry int, err error)) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !forgeerr.IsRetryable(err) || attempt >= p.MaxRetries {
			return err
		}
		retryNum := attempt + 1
		if onRetry != nil {
			onRetry(retryNum, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(retryNum)):
		}
	}
}
