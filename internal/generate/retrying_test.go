package generate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/educontent/internal/retry"
)

type reply struct {
	text string
	err  error
}

// scripted returns its replies in order and repeats the last one.
type scripted struct {
	mu      sync.Mutex
	replies []reply
	calls   int
	prompts []string
}

func (s *scripted) Generate(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	r := s.replies[min(s.calls, len(s.replies)-1)]
	s.calls++
	return r.text, r.err
}

func (s *scripted) Name() string { return "fake:test" }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 4, BaseDelay: time.Millisecond, Multiplier: 2}
}

func TestWithRetry_RetriesRateLimits(t *testing.T) {
	g := &scripted{replies: []reply{
		{err: &RetryableError{Backend: "fake", StatusCode: 429, Message: "rate limit"}},
		{err: &RetryableError{Backend: "fake", StatusCode: 503, Message: "overloaded"}},
		{text: "- Topic"},
	}}
	out, err := WithRetry(g, testPolicy(), discardLogger()).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "- Topic", out)
	assert.Equal(t, 3, g.calls)
}

func TestWithRetry_TerminalErrorNotRetried(t *testing.T) {
	g := &scripted{replies: []reply{{err: errors.New("invalid api key")}}}
	_, err := WithRetry(g, testPolicy(), discardLogger()).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Equal(t, 1, g.calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	g := &scripted{replies: []reply{{err: &RetryableError{Backend: "fake", StatusCode: 429}}}}
	_, err := WithRetry(g, testPolicy(), discardLogger()).Generate(context.Background(), "p")

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 4, g.calls)
}

func TestStatusError_Classification(t *testing.T) {
	tests := []struct {
		status    int
		body      string
		retryable bool
	}{
		{429, "slow down", true},
		{500, "internal", true},
		{503, "overloaded", true},
		{400, `{"error":{"message":"Quota exceeded for project"}}`, true},
		{403, "Rate limit reached", true},
		{400, "bad request", false},
		{401, "invalid key", false},
	}
	for _, tt := range tests {
		err := statusError("fake", tt.status, []byte(tt.body))
		assert.Equal(t, tt.retryable, IsRetryable(err), "status %d body %q", tt.status, tt.body)
	}
}

func TestClose_ForwardsThroughWrappers(t *testing.T) {
	c := &closable{scripted: scripted{replies: []reply{{text: "x"}}}}
	g := Stack(c, testConfig(), NewLLMStats(time.Hour), discardLogger())
	Close(g)
	assert.True(t, c.closed)
}

type closable struct {
	scripted
	closed bool
}

func (c *closable) Close() { c.closed = true }

func TestCallBudget_CoversRetries(t *testing.T) {
	cfg := testConfig()
	cfg.GenerateTimeout = 10 * time.Second
	cfg.RetryBaseDelay = time.Second
	cfg.RetryMaxDelay = 30 * time.Second

	// Three attempts of 10s each plus jittered waits of at most 1.5s and 3s.
	assert.Equal(t, 34500*time.Millisecond, CallBudget(cfg))

	cfg.GenerateTimeout = 0
	assert.Equal(t, 3*120*time.Second+4500*time.Millisecond, CallBudget(cfg))
}
