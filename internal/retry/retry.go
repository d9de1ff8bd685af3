// Package retry re-runs an operation after transient failures, waiting
// exponentially longer between attempts.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy controls how many times and how patiently an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration
	// Multiplier scales the wait after each further failure.
	Multiplier float64
	// MaxDelay caps a single wait. Zero means no cap.
	MaxDelay time.Duration
	// Jitter adds up to 50% random extra wait.
	Jitter bool
	// Retryable decides whether an error is transient. Nil retries every error.
	Retryable func(error) bool
}

// DefaultPolicy tries five times, starting at one second and doubling.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    30 * time.Second,
	}
}

// Backoff returns the wait before retrying after the given 0-indexed attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.delay(attempt)
	if p.Jitter && d > 1 && d < math.MaxInt64/2 {
		d += time.Duration(rand.Int64N(int64(d) / 2))
	}
	return p.capped(d)
}

// MaxTotalDelay is the longest Do can spend waiting between attempts,
// assuming every jittered wait lands at its upper bound.
func (p Policy) MaxTotalDelay() time.Duration {
	var total time.Duration
	for attempt := 0; attempt < p.MaxAttempts-1; attempt++ {
		d := p.delay(attempt)
		if p.Jitter && d < math.MaxInt64/2 {
			d += d / 2
		}
		d = p.capped(d)
		if total > math.MaxInt64-d {
			return time.Duration(math.MaxInt64)
		}
		total += d
	}
	return total
}

func (p Policy) delay(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	f := float64(p.BaseDelay) * math.Pow(mult, float64(attempt))
	if f >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(f)
}

// capped applies MaxDelay after jitter so it bounds every wait.
func (p Policy) capped(d time.Duration) time.Duration {
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

func (p Policy) retryable(err error) bool {
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Notify is called before each wait with the failed attempt (0-indexed),
// the upcoming delay and the error that caused the retry.
type Notify func(attempt int, delay time.Duration, err error)

// Do calls fn until it succeeds, fails with a non-retryable error, runs out
// of attempts, or ctx is done. A cancelled wait returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error), notify Notify) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !p.retryable(err) {
			return zero, err
		}
		if attempt+1 >= attempts {
			return zero, &ExhaustedError{Attempts: attempts, Err: err}
		}

		delay := p.Backoff(attempt)
		if notify != nil {
			notify(attempt, delay, err)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}
