// Package factory constructs llm.Client instances for the configured
// provider. It lives apart from package llm so the provider SDK imports stay
// out of the interface package.
package factory

import (
	"fmt"

	"concierge/pkg/config"
	"concierge/pkg/llm"
	"concierge/pkg/llm/anthropicimpl"
	"concierge/pkg/llm/googleimpl"
	"concierge/pkg/llm/ollamaimpl"
	"concierge/pkg/llm/openaiimpl"
)

// NewClient builds a retry-wrapped client for the configured provider.
func NewClient(s llm.ProviderSettings) (llm.Client, error) {
	var client llm.Client

	switch s.Provider {
	case config.ProviderAnthropic:
		client = anthropicimpl.NewClient(s.APIKey, s.Model)
	case config.ProviderOpenAI:
		client = openaiimpl.NewClient(s.APIKey, s.Model)
	case config.ProviderGoogle:
		client = googleimpl.NewClient(s.APIKey, s.Model)
	case config.ProviderOllama:
		client = ollamaimpl.NewClient(s.OllamaHost, s.Model)
	case "":
		return nil, fmt.Errorf("no llm provider configured")
	default:
		return nil, fmt.Errorf("unknown llm provider %q", s.Provider)
	}

	return llm.NewRetryableClient(client, llm.DefaultRetryConfig), nil
}

// FromConfig resolves the API key for the configured provider and builds the
// client. Ollama needs no key.
func FromConfig(cfg *config.Config, secrets config.Secrets) (llm.Client, error) {
	settings := llm.ProviderSettings{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		OllamaHost: cfg.LLM.OllamaHost,
	}

	var secretName string
	switch cfg.LLM.Provider {
	case config.ProviderAnthropic:
		secretName = config.SecretAnthropicKey
	case config.ProviderOpenAI:
		secretName = config.SecretOpenAIKey
	case config.ProviderGoogle:
		secretName = config.SecretGoogleKey
	}
	if secretName != "" {
		key, err := secrets.Get(secretName)
		if err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", cfg.LLM.Provider, err)
		}
		settings.APIKey = key
	}

	return NewClient(settings)
}
