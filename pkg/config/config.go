// Package config provides configuration loading and validation for the turn
// orchestration core.
//
// KEY PRINCIPLES:
//
//  1. VALIDATION FIRST: configs are validated on load; an invalid config is
//     rejected rather than patched up at the call site.
//  2. EXPLICIT CONSTRUCTION: Load returns a *Config that callers inject into
//     the components that need it. There is no package-level singleton; a
//     per-tenant deployment constructs one Config per process.
//  3. VALUES, NOT STATE: build/runtime state (pending tools, confirmation
//     status) never lives here; that is the caller's persistence concern.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported LLM provider identifiers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Config is the process-wide configuration, loaded once at startup.
//
//nolint:govet // fieldalignment: grouped by subsystem
type Config struct {
	// DefaultLocale applies when the caller supplies no locale.
	DefaultLocale string `yaml:"default_locale"`

	Intent       IntentConfig       `yaml:"intent"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
	Tools        ToolsConfig        `yaml:"tools"`
	LLM          LLMConfig          `yaml:"llm"`
	RAG          RAGConfig          `yaml:"rag"`
	Database     DatabaseConfig     `yaml:"database"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// IntentConfig tunes the keyword classifier.
type IntentConfig struct {
	// ConfidenceThreshold gates the LLM fallback: keyword results at or above
	// it are returned directly.
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	// EnableLLMFallback turns on the model-based classifier for low-confidence
	// utterances. Requires a configured LLM provider.
	EnableLLMFallback bool `yaml:"enable_llm_fallback"`
}

// ConfirmationConfig tunes the yes/no interpreter.
type ConfirmationConfig struct {
	// MaxAttempts caps clarification rounds before the orchestrator forces a
	// denial.
	MaxAttempts int `yaml:"max_attempts"`
}

// ToolsConfig tunes the executor.
type ToolsConfig struct {
	// ExecutionTimeout bounds a single tool run.
	ExecutionTimeout time.Duration `yaml:"execution_timeout"`
}

// LLMConfig selects and tunes the language model provider.
type LLMConfig struct {
	// Provider is one of anthropic, openai, google, ollama; empty disables
	// all LLM paths (keyword classification and templates still work).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	// OllamaHost is only consulted when Provider is ollama.
	OllamaHost string `yaml:"ollama_host"`
	// MaxTokens bounds completion length.
	MaxTokens int `yaml:"max_tokens"`
	// HistoryTokenBudget bounds how much conversation history is replayed
	// into synthesis prompts.
	HistoryTokenBudget int `yaml:"history_token_budget"`
}

// RAGConfig tunes knowledge retrieval.
type RAGConfig struct {
	// MaxResults caps ranked sources returned per query.
	MaxResults int `yaml:"max_results"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig controls the Prometheus surface.
type MetricsConfig struct {
	// ListenAddr serves /metrics when non-empty (e.g. ":9090").
	ListenAddr string `yaml:"listen_addr"`
	// QueryURL points the aggregate query service at a Prometheus server.
	QueryURL string `yaml:"query_url"`
}

// Default returns a config with production defaults applied.
func Default() *Config {
	return &Config{
		DefaultLocale: "es",
		Intent: IntentConfig{
			ConfidenceThreshold: 0.6,
			EnableLLMFallback:   false,
		},
		Confirmation: ConfirmationConfig{
			MaxAttempts: 3,
		},
		Tools: ToolsConfig{
			ExecutionTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			MaxTokens:          1024,
			HistoryTokenBudget: 2048,
			OllamaHost:         "http://localhost:11434",
		},
		RAG: RAGConfig{
			MaxResults: 5,
		},
		Database: DatabaseConfig{
			Path: "concierge.db",
		},
	}
}

// Load reads a YAML config file, layers it over the defaults, and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.DefaultLocale != "es" && c.DefaultLocale != "en" {
		return fmt.Errorf("default_locale must be es or en, got %q", c.DefaultLocale)
	}
	if c.Intent.ConfidenceThreshold < 0 || c.Intent.ConfidenceThreshold > 1 {
		return fmt.Errorf("intent.confidence_threshold must be in [0,1], got %v", c.Intent.ConfidenceThreshold)
	}
	if c.Confirmation.MaxAttempts < 1 {
		return fmt.Errorf("confirmation.max_attempts must be at least 1, got %d", c.Confirmation.MaxAttempts)
	}
	if c.Tools.ExecutionTimeout <= 0 {
		return fmt.Errorf("tools.execution_timeout must be positive, got %v", c.Tools.ExecutionTimeout)
	}
	if c.RAG.MaxResults < 1 {
		return fmt.Errorf("rag.max_results must be at least 1, got %d", c.RAG.MaxResults)
	}
	switch c.LLM.Provider {
	case "", ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderOllama:
	default:
		return fmt.Errorf("llm.provider must be one of anthropic, openai, google, ollama, got %q", c.LLM.Provider)
	}
	if c.Intent.EnableLLMFallback && c.LLM.Provider == "" {
		return fmt.Errorf("intent.enable_llm_fallback requires llm.provider to be set")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	return nil
}
