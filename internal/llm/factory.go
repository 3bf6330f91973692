package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"bizradar/internal/config"
)

// DetectProvider infers the provider from environment variables.
// Priority: OPENAI_API_KEY > GEMINI_API_KEY. Returns the empty
// string when no key is set.
func DetectProvider() string {
	providers := []struct {
		envVar   string
		provider string
	}{
		{"OPENAI_API_KEY", "openai"},
		{"GEMINI_API_KEY", "gemini"},
	}
	for _, p := range providers {
		if os.Getenv(p.envVar) != "" {
			return p.provider
		}
	}
	return ""
}

// NewFromConfig builds a Client for the configured provider.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Client, error) {
	clientCfg := Config{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.GetLLMTimeout(),
		MaxRetries: cfg.LLM.MaxRetries,
	}

	switch cfg.LLM.Provider {
	case "openai":
		if clientCfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenAIClient(clientCfg, logger), nil

	case "gemini":
		return NewGeminiClient(ctx, clientCfg, logger)

	case "mock":
		return NewMockClient(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid: %v)", cfg.LLM.Provider, config.ValidProviders)
	}
}
