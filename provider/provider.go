// Package provider abstracts the LLM backend behind a minimal
// completion interface so the prediction pipeline never talks to a
// vendor API directly.
package provider

import (
	"context"
	"fmt"

	"github.com/mgcnb666/Predictive-AI-agent/config"
	"github.com/mgcnb666/Predictive-AI-agent/provider/openai"
)

// Provider issues one completion per call. Implementations must honor
// context cancellation and return the raw text reply untouched.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// NewProvider builds a Provider from configuration. OpenRouter speaks
// the OpenAI chat-completions wire format, so both map to one client.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "openrouter":
		return openai.New(openai.Options{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}
