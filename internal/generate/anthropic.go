package generate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// anthropicURL is the Messages API endpoint. Package-level var for test substitution.
var anthropicURL = "https://api.anthropic.com/v1/messages"

// AnthropicClient calls the Anthropic Messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	opts       Options
	httpClient *http.Client
}

func NewAnthropicClient(apiKey, model string, opts Options) *AnthropicClient {
	opts = opts.withDefaults()
	return &AnthropicClient{
		apiKey: apiKey,
		model:  model,
		opts:   opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends prompt as a single user message and joins the text blocks
// of the reply.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := anthropicRequest{
		Model:       c.model,
		MaxTokens:   c.opts.MaxOutputTokens,
		Temperature: c.opts.Temperature,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var resp anthropicResponse
	if err := postJSON(ctx, c.httpClient, "anthropic", anthropicURL, headers, req, &resp); err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("anthropic error: %s: %s", resp.Error.Type, resp.Error.Message)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	// Leading indentation is kept: it carries roadmap depth.
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *AnthropicClient) Name() string {
	return "anthropic:" + c.model
}

// Close releases idle connections.
func (c *AnthropicClient) Close() {
	c.httpClient.CloseIdleConnections()
}
