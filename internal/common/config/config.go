// internal/common/config/config.go
package config

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Camunda   CamundaConfig   `mapstructure:"camunda"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address         string `mapstructure:"address"`
	MetricsAddress  string `mapstructure:"metrics_address"`
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// ProvidersConfig holds the external generation providers.
// Default is the provider used when a request does not name one.
type ProvidersConfig struct {
	Default   string         `mapstructure:"default"`
	Timeout   int            `mapstructure:"timeout"` // milliseconds, per attempt
	OpenAI    ProviderConfig `mapstructure:"openai"`
	Anthropic ProviderConfig `mapstructure:"anthropic"`
}

// ProviderConfig describes one provider. An empty APIKey disables it.
type ProviderConfig struct {
	APIKey      string   `mapstructure:"api_key"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	MaxTokens   int      `mapstructure:"max_tokens"`
	Temperature *float64 `mapstructure:"temperature"` // nil leaves the provider default
	Version     string   `mapstructure:"version"`
}

// Validate checks the endpoint and limits. The credential is optional.
func (p ProviderConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BaseURL, validation.Required, is.URL),
		validation.Field(&p.MaxTokens, validation.Min(0)),
		validation.Field(&p.Temperature, validation.Min(0.0), validation.Max(2.0)),
	)
}

// HasCredential reports whether the provider can be called at all.
func (p ProviderConfig) HasCredential() bool {
	return p.APIKey != ""
}

// CacheConfig holds the optional provider answer cache.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // milliseconds
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CamundaConfig holds the Zeebe job worker settings.
type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Provider returns the provider settings registered under id.
func (p ProvidersConfig) Provider(id string) (ProviderConfig, error) {
	switch id {
	case ProviderOpenAI:
		return p.OpenAI, nil
	case ProviderAnthropic:
		return p.Anthropic, nil
	}
	return ProviderConfig{}, fmt.Errorf("unknown provider %q", id)
}

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ProviderIDs lists every provider the configuration knows, in registration order.
var ProviderIDs = []string{ProviderOpenAI, ProviderAnthropic}
