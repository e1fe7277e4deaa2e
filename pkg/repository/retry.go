package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ReadRetry bounds how often a read is re-attempted after a transient failure.
type ReadRetry struct {
	Attempts     int
	InitialDelay time.Duration
}

// Read executes fn, retrying only errors marked ErrTransient.
// Domain errors (not found, validation, ...) return immediately.
// Never use Read for writes.
func Read[T any](ctx context.Context, policy ReadRetry, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	eb := backoff.NewExponentialBackOff()
	if policy.InitialDelay > 0 {
		eb.InitialInterval = policy.InitialDelay
	}

	attempts := max(policy.Attempts, 0)
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts)), ctx)

	op := func() error {
		v, err := fn(ctx)
		if err != nil {
			if errors.Is(err, ErrTransient) {
				return err
			}
			return backoff.Permanent(err)
		}
		result = v
		return nil
	}

	if err := backoff.Retry(op, b); err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}
