package generate

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/educontent/internal/retry"
)

type retrying struct {
	next   Generator
	policy retry.Policy
	log    *slog.Logger
}

// WithRetry wraps g so retryable failures are attempted again under policy.
// A policy without a Retryable predicate retries only *RetryableError.
func WithRetry(g Generator, policy retry.Policy, log *slog.Logger) Generator {
	if policy.Retryable == nil {
		policy.Retryable = IsRetryable
	}
	return &retrying{next: g, policy: policy, log: log}
}

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	return retry.Do(ctx, r.policy, func(ctx context.Context) (string, error) {
		return r.next.Generate(ctx, prompt)
	}, func(attempt int, delay time.Duration, err error) {
		r.log.Warn("retryable generation error",
			"backend", r.next.Name(),
			"attempt", attempt+1,
			"max_attempts", r.policy.MaxAttempts,
			"delay", delay.String(),
			"error", err,
		)
	})
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) Close() { Close(r.next) }
