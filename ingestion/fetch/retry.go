package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds retries of a transient operation with exponential
// backoff. The zero value performs a single attempt with no waiting;
// DefaultRetryPolicy returns the policy used for image fetches.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// MinInterval is the floor for the wait between attempts.
	MinInterval time.Duration
	// MaxInterval is the ceiling for the wait between attempts.
	MaxInterval time.Duration
	// Multiplier grows the wait after each attempt, clamped to MaxInterval.
	Multiplier float64
}

// DefaultRetryPolicy retries up to 3 attempts with exponential waits
// between a 4-second floor and a 10-second ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		MinInterval: 4 * time.Second,
		MaxInterval: 10 * time.Second,
		Multiplier:  2,
	}
}

// Retry runs op until it succeeds, the attempt budget is exhausted, or ctx
// is cancelled. Wrap an error with backoff.Permanent to stop retrying early.
func (p RetryPolicy) Retry(ctx context.Context, op backoff.Operation) error {
	exponential := backoff.NewExponentialBackOff()
	exponential.InitialInterval = p.MinInterval
	exponential.MaxInterval = p.MaxInterval
	if p.Multiplier > 0 {
		exponential.Multiplier = p.Multiplier
	}
	exponential.MaxElapsedTime = 0
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var policy backoff.BackOff = backoff.WithContext(exponential, ctx)
	policy = backoff.WithMaxRetries(policy, uint64(attempts-1))
	return backoff.Retry(op, policy)
}
