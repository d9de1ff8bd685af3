package generate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/educontent/internal/config"
	"github.com/dgallion1/educontent/internal/retry"
)

// New creates the raw backend client selected by cfg.Backend.
func New(cfg config.Config) (Generator, error) {
	opts := optionsFromConfig(cfg)
	switch cfg.Backend {
	case config.BackendAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, opts), nil
	case config.BackendGemini:
		return NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, opts), nil
	case config.BackendOllama:
		return NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, opts), nil
	default:
		return nil, fmt.Errorf("unknown generator backend %q", cfg.Backend)
	}
}

// PolicyFromConfig builds the retry policy for generation calls.
func PolicyFromConfig(cfg config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
		Multiplier:  cfg.RetryMultiplier,
		MaxDelay:    cfg.RetryMaxDelay,
		Jitter:      true,
		Retryable:   IsRetryable,
	}
}

// CallBudget is the longest a single Generate call through Stack can take:
// every attempt running to GenerateTimeout plus the worst-case waits between
// them.
func CallBudget(cfg config.Config) time.Duration {
	p := PolicyFromConfig(cfg)
	attempts := max(p.MaxAttempts, 1)
	return time.Duration(attempts)*optionsFromConfig(cfg).Timeout + p.MaxTotalDelay()
}

func optionsFromConfig(cfg config.Config) Options {
	return Options{
		MaxOutputTokens: cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
		Timeout:         cfg.GenerateTimeout,
	}.withDefaults()
}

// Stack wraps a backend the way both binaries use it: latency stats on every
// underlying call, retries outside of that.
func Stack(g Generator, cfg config.Config, stats *LLMStats, log *slog.Logger) Generator {
	return WithRetry(Instrument(g, stats), PolicyFromConfig(cfg), log)
}
