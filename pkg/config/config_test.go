package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
default_locale: en
intent:
  confidence_threshold: 0.75
tools:
  execution_timeout: 5s
database:
  path: /tmp/test.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, 0.75, cfg.Intent.ConfidenceThreshold)
	assert.Equal(t, 5*time.Second, cfg.Tools.ExecutionTimeout)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	// Untouched defaults survive.
	assert.Equal(t, 3, cfg.Confirmation.MaxAttempts)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad locale", func(c *Config) { c.DefaultLocale = "fr" }},
		{"threshold above one", func(c *Config) { c.Intent.ConfidenceThreshold = 1.5 }},
		{"zero attempts", func(c *Config) { c.Confirmation.MaxAttempts = 0 }},
		{"zero timeout", func(c *Config) { c.Tools.ExecutionTimeout = 0 }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "mistral" }},
		{"fallback without provider", func(c *Config) { c.Intent.EnableLLMFallback = true }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSecretsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := Secrets{SecretAnthropicKey: "sk-test-123", "CUSTOM": "value"}

	require.NoError(t, EncryptSecretsFile(dir, "hunter2", in))
	require.True(t, SecretsFileExists(dir))

	out, err := DecryptSecretsFile(dir, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", out[SecretAnthropicKey])
	assert.Equal(t, "value", out["CUSTOM"])

	_, err = DecryptSecretsFile(dir, "wrong-password")
	assert.Error(t, err)
}

func TestSecretsEnvFallback(t *testing.T) {
	t.Setenv("CONCIERGE_TEST_SECRET", "from-env")
	var s Secrets

	val, err := s.Get("CONCIERGE_TEST_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "from-env", val)

	_, err = s.Get("CONCIERGE_TEST_MISSING")
	assert.Error(t, err)
}
