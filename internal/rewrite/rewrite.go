// Package rewrite tailors resume text for a job posting through an LLM.
// Providers share one contract: one input line in, one output line out.
package rewrite

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Rewriter transforms one chunk of resume text for a job.
type Rewriter interface {
	Rewrite(ctx context.Context, text string, job JobContext) (string, error)
	Model() string
}

// RewriterFunc adapts a plain function to Rewriter.
type RewriterFunc func(ctx context.Context, text string, job JobContext) (string, error)

func (f RewriterFunc) Rewrite(ctx context.Context, text string, job JobContext) (string, error) {
	return f(ctx, text, job)
}

func (f RewriterFunc) Model() string { return "func" }

// Identity returns every chunk unchanged. Used for dry runs.
func Identity() Rewriter {
	return RewriterFunc(func(_ context.Context, text string, _ JobContext) (string, error) {
		return text, nil
	})
}

// Provider names accepted by NewRewriter.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config selects and tunes a provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	BaseURL     string
}

// Defaults for the OpenAI provider.
const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.3
	DefaultTimeout     = 120 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature < 0 {
		c.Temperature = DefaultTemperature
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// NewRewriter builds the rewriter named by cfg.Provider. An empty provider
// means OpenAI.
func NewRewriter(ctx context.Context, cfg Config) (Rewriter, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("rewrite: %s api key is required", providerName(cfg.Provider))
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderOpenAI:
		return NewOpenAIRewriter(cfg), nil
	case ProviderAnthropic, "claude":
		return NewClaudeRewriter(cfg), nil
	case ProviderGemini:
		return NewGeminiRewriter(ctx, cfg)
	default:
		return nil, fmt.Errorf("rewrite: unknown provider %q", cfg.Provider)
	}
}

func providerName(p string) string {
	if p == "" {
		return ProviderOpenAI
	}
	return p
}
