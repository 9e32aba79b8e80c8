package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxDelay = 2 * time.Second

// Do runs fn up to attempts times with exponential backoff starting at
// baseDelay and capped at two seconds. It returns fn's last error, or the
// context's error if ctx ends first. An error wrapped with Stop ends the
// loop at once.
func Do(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if attempts <= 1 {
		return unwrapStop(fn())
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = baseDelay
	policy.MaxInterval = maxDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	return backoff.Retry(fn, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx))
}

// Stop marks err as final so Do returns it without further attempts.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

func unwrapStop(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}
	return err
}
