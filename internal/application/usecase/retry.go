package usecase

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how often a stage is re-entered after a transient failure.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	JitterFactor float64
}

// do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. onRetry runs before each backoff wait.
func (p RetryPolicy) do(ctx context.Context, retryable func(error) bool,
	onRetry func(attempt int, err error), fn func(ctx context.Context, attempt int) error,
) error {
	attempt := 0

	op := func() error {
		if ierr := interrupted(ctx); ierr != nil {
			return backoff.Permanent(ierr)
		}

		attempt++
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}

		if ierr := interrupted(ctx); ierr != nil {
			return backoff.Permanent(ierr)
		}

		if !retryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	notify := func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err)
		}
	}

	retries := uint64(max(p.MaxAttempts, 1) - 1)
	b := backoff.WithContext(backoff.WithMaxRetries(p.backOff(), retries), ctx)

	err := backoff.RetryNotify(op, b, notify)
	if err == nil {
		return nil
	}

	if ierr := interrupted(ctx); ierr != nil {
		return ierr
	}

	return err
}

// backOff doubles BaseDelay per attempt up to MaxDelay, spread by JitterFactor.
func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = p.JitterFactor
	b.MaxElapsedTime = 0
	if p.MaxDelay > 0 {
		b.MaxInterval = p.MaxDelay
	}
	b.Reset()

	return b
}
