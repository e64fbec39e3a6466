package mongostore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	connectAttempts = 3
	baseBackoff     = time.Second
	maxBackoff      = 5 * time.Second
)

// connectPolicy waits initial, 2*initial, 4*initial... capped at maxBackoff,
// with no jitter and no elapsed-time cutoff.
func connectPolicy(initial time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// connectBackOff bounds connectPolicy to connectAttempts tries and stops
// early when ctx is done.
func connectBackOff(ctx context.Context, initial time.Duration) backoff.BackOffContext {
	return backoff.WithContext(backoff.WithMaxRetries(connectPolicy(initial), connectAttempts-1), ctx)
}

// retry runs op until it succeeds or b gives up, returning the last op
// error or the context error. It must only wrap idempotent reads.
func retry(b backoff.BackOffContext, op func(attempt int) error) error {
	attempt := 0
	return backoff.Retry(func() error {
		err := op(attempt)
		attempt++
		return err
	}, b)
}
