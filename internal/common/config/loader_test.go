package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY",
		"ANTHROPIC_API_KEY",
		"REDIS_URL",
		"PROVIDERS_DEFAULT",
		"PROVIDERS_TIMEOUT",
		"PROVIDERS_OPENAI_API_KEY",
		"PROVIDERS_ANTHROPIC_API_KEY",
		"CACHE_ENABLED",
		"CACHE_REDIS_ADDRESS",
		"CAMUNDA_ENABLED",
		"CAMUNDA_BROKER_ADDRESS",
		"SERVER_ADDRESS",
		"LOGGING_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromFile_Defaults(t *testing.T) {
	clearProviderEnv(t)
	path := writeConfig(t, "app:\n  name: test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, ProviderOpenAI, cfg.Providers.Default)
	assert.Equal(t, 60*time.Second, GetDuration(cfg.Providers.Timeout))
	assert.Equal(t, "gpt-4", cfg.Providers.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Providers.OpenAI.BaseURL)
	assert.Equal(t, 2000, cfg.Providers.OpenAI.MaxTokens)
	assert.Equal(t, "claude-3-sonnet-20240229", cfg.Providers.Anthropic.Model)
	assert.Equal(t, "2023-06-01", cfg.Providers.Anthropic.Version)
	assert.False(t, cfg.Providers.OpenAI.HasCredential())
	assert.Equal(t, []string{ProviderOpenAI, ProviderAnthropic}, ProviderIDs)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Camunda.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_CredentialsFromEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "ak-env")
	path := writeConfig(t, "providers:\n  default: anthropic\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-env", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, "ak-env", cfg.Providers.Anthropic.APIKey)
	assert.Equal(t, ProviderAnthropic, cfg.Providers.Default)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("TEST_OPENAI_KEY", "sk-placeholder")
	path := writeConfig(t, "providers:\n  openai:\n    api_key: ${TEST_OPENAI_KEY}\n    model: gpt-4o\n  timeout: 5000\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-placeholder", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Providers.OpenAI.Model)
	assert.Equal(t, 5*time.Second, GetDuration(cfg.Providers.Timeout))
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown default provider", "providers:\n  default: gemini\n"},
		{"negative timeout", "providers:\n  timeout: -1\n"},
		{"cache without redis", "cache:\n  enabled: true\n"},
		{"camunda without broker", "camunda:\n  enabled: true\n"},
		{"malformed base url", "providers:\n  openai:\n    base_url: not a url\n"},
		{"temperature out of range", "providers:\n  anthropic:\n    temperature: 3.5\n"},
		{"negative max tokens", "providers:\n  openai:\n    max_tokens: -10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			_, err := LoadFromFile(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile_Temperature(t *testing.T) {
	clearProviderEnv(t)

	cfg, err := LoadFromFile(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Providers.OpenAI.Temperature)
	assert.InDelta(t, 0.7, *cfg.Providers.OpenAI.Temperature, 1e-9)
	assert.Nil(t, cfg.Providers.Anthropic.Temperature)

	cfg, err = LoadFromFile(writeConfig(t, "providers:\n  openai:\n    temperature: 0\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Providers.OpenAI.Temperature)
	assert.Zero(t, *cfg.Providers.OpenAI.Temperature)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestProvidersConfig_Provider(t *testing.T) {
	p := ProvidersConfig{
		OpenAI:    ProviderConfig{Model: "gpt-4"},
		Anthropic: ProviderConfig{Model: "claude"},
	}

	got, err := p.Provider(ProviderAnthropic)
	require.NoError(t, err)
	assert.Equal(t, "claude", got.Model)

	_, err = p.Provider("gemini")
	assert.Error(t, err)
}
