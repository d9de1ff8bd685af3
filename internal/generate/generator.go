// Package generate sends prompts to a language model backend and returns the
// text it produces. Backends share one small interface so the assistant does
// not care whether it talks to a hosted API or a local daemon.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Generator turns a prompt into model output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend and model, e.g. "anthropic:claude-sonnet-4-5".
	Name() string
}

// ErrEmptyResponse means the backend answered but produced no text.
var ErrEmptyResponse = errors.New("empty response from model")

// RetryableError indicates a transient failure (rate limit, quota, overload)
// that can be retried.
type RetryableError struct {
	Backend    string
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("%s: retryable error (status %d): %s", e.Backend, e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Close releases resources held by g, if it holds any.
func Close(g Generator) {
	if c, ok := g.(interface{ Close() }); ok {
		c.Close()
	}
}

// statusError classifies a non-200 response. 429, 5xx and bodies that talk
// about quota or rate limits are retryable; everything else is terminal.
func statusError(backend string, status int, body []byte) error {
	msg := string(body)
	if status == 429 || status >= 500 || mentionsRateLimit(msg) {
		return &RetryableError{Backend: backend, StatusCode: status, Message: msg}
	}
	return fmt.Errorf("%s api status %d: %s", backend, status, truncate(msg, 500))
}

func mentionsRateLimit(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "quota") || strings.Contains(m, "rate limit")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
