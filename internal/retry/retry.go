// Package retry centralizes the bounded-retry-with-exponential-backoff
// policy shared by the LLM and datastore adapters, replacing the
// decorator-spread retry logic the teacher's source material used with a
// single utility both adapters call through.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Classification tells the retry loop whether an error is worth retrying.
type Classification int

const (
	// Retryable errors are transient and should be retried up to the
	// configured attempt budget.
	Retryable Classification = iota
	// Fatal errors should not be retried.
	Fatal
)

// Classifier inspects an error returned by the wrapped call and decides
// whether to retry.
type Classifier func(err error) Classification

// Policy configures the retry loop.
type Policy struct {
	MaxAttempts       int
	BackoffBase       time.Duration
	BackoffMultiplier float64
	MaxBackoff        time.Duration
}

// Do runs fn up to Policy.MaxAttempts times, sleeping with exponential
// backoff (plus jitter) between attempts, until fn succeeds, returns a
// Fatal error, or the attempt budget is exhausted. It returns the number
// of attempts made and the last error (nil on success).
func Do(ctx context.Context, p Policy, classify Classifier, fn func() error) (attempts int, err error) {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		attempts = attempt

		lastErr = fn()
		if lastErr == nil {
			return attempts, nil
		}

		if classify(lastErr) == Fatal {
			return attempts, lastErr
		}

		if attempt < p.MaxAttempts {
			backoff := Backoff(p, attempt)
			select {
			case <-ctx.Done():
				return attempts, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return attempts, lastErr
}

// Backoff computes the exponential backoff (with +/-25% jitter) for the
// given 1-indexed attempt number.
func Backoff(p Policy, attempt int) time.Duration {
	multiplier := 1.0
	for i := 1; i < attempt; i++ {
		multiplier *= p.BackoffMultiplier
	}

	backoff := time.Duration(float64(p.BackoffBase) * multiplier)
	if backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	jitter := float64(backoff) * 0.25 * (rand.Float64()*2 - 1)
	return backoff + time.Duration(jitter)
}

// IsCancelled reports whether err is a context cancellation/deadline.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
