package generate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/educontent/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		RetryMaxAttempts: 3,
		RetryBaseDelay:   time.Millisecond,
		RetryMultiplier:  2,
	}
}

func TestAnthropicClient_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, 1024, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "make a roadmap", req.Messages[0].Content)

		w.Write([]byte(`{"content":[{"type":"text","text":"  - indented first\n"},{"type":"text","text":"- second"}]}`))
	}))
	defer ts.Close()

	old := anthropicURL
	anthropicURL = ts.URL
	defer func() { anthropicURL = old }()

	c := NewAnthropicClient("key-1", "claude-test", Options{MaxOutputTokens: 1024})
	defer c.Close()

	out, err := c.Generate(context.Background(), "make a roadmap")
	require.NoError(t, err)
	assert.Equal(t, "  - indented first\n- second", out)
	assert.Equal(t, "anthropic:claude-test", c.Name())
}

func TestAnthropicClient_RateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer ts.Close()

	old := anthropicURL
	anthropicURL = ts.URL
	defer func() { anthropicURL = old }()

	_, err := NewAnthropicClient("k", "m", Options{}).Generate(context.Background(), "p")
	require.Error(t, err)

	var rerr *RetryableError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusTooManyRequests, rerr.StatusCode)
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"   "}]}`))
	}))
	defer ts.Close()

	old := anthropicURL
	anthropicURL = ts.URL
	defer func() { anthropicURL = old }()

	_, err := NewAnthropicClient("k", "m", Options{}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiClient_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.SafetySettings, 4)
		assert.Equal(t, 0.7, req.GenerationConfig.Temperature)
		assert.Equal(t, 1, req.GenerationConfig.TopK)
		assert.Equal(t, 4096, req.GenerationConfig.MaxOutputTokens)

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"- A\n"},{"text":"  - B"}]},"finishReason":"STOP"}]}`))
	}))
	defer ts.Close()

	old := geminiBaseURL
	geminiBaseURL = ts.URL
	defer func() { geminiBaseURL = old }()

	out, err := NewGeminiClient("g-key", "gemini-test", Options{Temperature: 0.7}).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "- A\n  - B", out)
}

func TestGeminiClient_QuotaIsRetryable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer ts.Close()

	old := geminiBaseURL
	geminiBaseURL = ts.URL
	defer func() { geminiBaseURL = old }()

	_, err := NewGeminiClient("k", "m", Options{}).Generate(context.Background(), "p")
	assert.True(t, IsRetryable(err))
}

func TestGeminiClient_BlockedPrompt(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer ts.Close()

	old := geminiBaseURL
	geminiBaseURL = ts.URL
	defer func() { geminiBaseURL = old }()

	_, err := NewGeminiClient("k", "m", Options{}).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
	assert.False(t, IsRetryable(err))
}

func TestOllamaClient_Generate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "phi3", req.Model)
		assert.False(t, req.Stream)
		w.Write([]byte(`{"response":"- Local topic","done":true}`))
	}))
	defer ts.Close()

	c := NewOllamaClient(ts.URL+"/", "phi3", Options{})
	out, err := c.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "- Local topic", out)
	assert.Equal(t, "ollama:phi3", c.Name())
}

func TestOllamaClient_ModelNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model 'phi3' not found, try pulling it first"}`))
	}))
	defer ts.Close()

	_, err := NewOllamaClient(ts.URL, "phi3", Options{}).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaClient_ListModels(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"phi3:latest","size":2300000000,"modified_at":"2026-05-01T10:00:00Z"},{"name":"llama3:8b","size":4700000000,"modified_at":"2026-05-02T10:00:00Z"}]}`))
	}))
	defer ts.Close()

	models, err := NewOllamaClient(ts.URL, "phi3", Options{}).ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "phi3:latest", models[0].Name)
	assert.Equal(t, int64(4700000000), models[1].Size)
}

func TestOllamaClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewOllamaClient(url, "phi3", Options{Timeout: time.Second}).ListModels(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestNew_SelectsBackend(t *testing.T) {
	tests := []struct {
		backend string
		name    string
	}{
		{config.BackendAnthropic, "anthropic:a-model"},
		{config.BackendGemini, "gemini:g-model"},
		{config.BackendOllama, "ollama:o-model"},
	}
	for _, tt := range tests {
		cfg := config.Config{
			Backend:        tt.backend,
			AnthropicModel: "a-model",
			GeminiModel:    "g-model",
			OllamaModel:    "o-model",
			OllamaURL:      "http://localhost:11434",
		}
		g, err := New(cfg)
		require.NoError(t, err)
		assert.Equal(t, tt.name, g.Name())
	}

	_, err := New(config.Config{Backend: "nope"})
	assert.Error(t, err)
}
