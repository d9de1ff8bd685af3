package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted in GENERATOR_BACKEND.
const (
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Content generation
	Backend         string
	AnthropicAPIKey string
	AnthropicModel  string
	GeminiAPIKey    string
	GeminiModel     string
	OllamaURL       string
	OllamaModel     string
	GenerateTimeout time.Duration
	MaxOutputTokens int
	Temperature     float64
	PromptsFile     string

	// Retry
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMultiplier  float64
	RetryMaxDelay    time.Duration

	// Sources
	MaxUploadBytes       int64
	MaxSourceTokens      int
	FetchTimeout         time.Duration
	PDFFallbackPdftotext bool

	// Sessions
	SessionTTL  time.Duration
	MaxSessions int

	// Roadmap graph keyed on node position instead of label.
	UniqueNodeIDs bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("EDU_API_KEY"),

		Backend:         strings.ToLower(envOr("GENERATOR_BACKEND", BackendAnthropic)),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaURL:       strings.TrimRight(envOr("OLLAMA_URL", "http://localhost:11434"), "/"),
		OllamaModel:     envOr("OLLAMA_MODEL", "phi3"),
		GenerateTimeout: envDuration("GENERATE_TIMEOUT", 3*time.Minute),
		MaxOutputTokens: envInt("MAX_OUTPUT_TOKENS", 4096),
		Temperature:     envFloat("TEMPERATURE", 0.7),
		PromptsFile:     os.Getenv("PROMPTS_FILE"),

		RetryMaxAttempts: envInt("RETRY_MAX_ATTEMPTS", 5),
		RetryBaseDelay:   envDuration("RETRY_BASE_DELAY", 1*time.Second),
		RetryMultiplier:  envFloat("RETRY_MULTIPLIER", 2),
		RetryMaxDelay:    envDuration("RETRY_MAX_DELAY", 30*time.Second),

		MaxUploadBytes:       envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		MaxSourceTokens:      envInt("MAX_SOURCE_TOKENS", 24000),
		FetchTimeout:         envDuration("FETCH_TIMEOUT", 30*time.Second),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		SessionTTL:  envDuration("SESSION_TTL", 2*time.Hour),
		MaxSessions: envInt("MAX_SESSIONS", 1000),

		UniqueNodeIDs: envBool("UNIQUE_NODE_IDS", false),
	}

	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 3 * time.Minute
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 4096
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 5
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 1 * time.Second
	}
	if cfg.RetryMultiplier < 1 {
		cfg.RetryMultiplier = 2
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxSourceTokens <= 0 {
		cfg.MaxSourceTokens = 24000
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}

	return cfg
}

// Validate checks the settings needed to reach the selected backend.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for backend %q", c.Backend)
		}
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for backend %q", c.Backend)
		}
	case BackendOllama:
		if c.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required for backend %q", c.Backend)
		}
	default:
		return fmt.Errorf("unknown GENERATOR_BACKEND %q (want anthropic, gemini or ollama)", c.Backend)
	}
	return nil
}

// ValidateServer additionally requires the API key guarding the HTTP API.
func (c Config) ValidateServer() error {
	if c.APIKey == "" {
		return fmt.Errorf("EDU_API_KEY is required")
	}
	return c.Validate()
}

// Model returns the model name configured for the selected backend.
func (c Config) Model() string {
	switch c.Backend {
	case BackendGemini:
		return c.GeminiModel
	case BackendOllama:
		return c.OllamaModel
	default:
		return c.AnthropicModel
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
