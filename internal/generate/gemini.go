package generate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// geminiBaseURL is the Generative Language API root. Package-level var for test substitution.
var geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var geminiSafetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	apiKey     string
	model      string
	opts       Options
	httpClient *http.Client
}

func NewGeminiClient(apiKey, model string, opts Options) *GeminiClient {
	opts = opts.withDefaults()
	return &GeminiClient{
		apiKey: apiKey,
		model:  model,
		opts:   opts,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends prompt as a single user turn and joins the text parts of
// the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.opts.Temperature,
			TopP:            1,
			TopK:            1,
			MaxOutputTokens: c.opts.MaxOutputTokens,
		},
	}
	for _, cat := range geminiSafetyCategories {
		req.SafetySettings = append(req.SafetySettings, geminiSafetySetting{
			Category:  cat,
			Threshold: "BLOCK_MEDIUM_AND_ABOVE",
		})
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", geminiBaseURL, url.PathEscape(c.model))
	headers := map[string]string{"x-goog-api-key": c.apiKey}

	var resp geminiResponse
	if err := postJSON(ctx, c.httpClient, "gemini", endpoint, headers, req, &resp); err != nil {
		return "", err
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		if reason := resp.Candidates[0].FinishReason; reason != "" && reason != "STOP" {
			return "", fmt.Errorf("gemini finished without text: %s", reason)
		}
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (c *GeminiClient) Name() string {
	return "gemini:" + c.model
}

// Close releases idle connections.
func (c *GeminiClient) Close() {
	c.httpClient.CloseIdleConnections()
}
