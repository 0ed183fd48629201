// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml and
// applies environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{
		"providers.default",
		"providers.timeout",
		"providers.openai.api_key",
		"providers.anthropic.api_key",
		"cache.enabled",
		"cache.redis.address",
		"camunda.enabled",
		"camunda.broker_address",
		"server.address",
		"logging.level",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig reads the conventional provider credential variables
// when the config file did not set them.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Providers.OpenAI.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.Providers.OpenAI.APIKey = val
		}
	}
	if cfg.Providers.Anthropic.APIKey == "" {
		if val := os.Getenv("ANTHROPIC_API_KEY"); val != "" {
			cfg.Providers.Anthropic.APIKey = val
		}
	}
	if cfg.Cache.Redis.Address == "" {
		if val := os.Getenv("REDIS_URL"); val != "" {
			cfg.Cache.Redis.Address = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "drone-configurator"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":3000"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":8080"
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 1 << 20
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 90000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30000
	}

	if cfg.Providers.Default == "" {
		cfg.Providers.Default = ProviderOpenAI
	}
	if cfg.Providers.Timeout == 0 {
		cfg.Providers.Timeout = 60000
	}
	if cfg.Providers.OpenAI.BaseURL == "" {
		cfg.Providers.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Providers.OpenAI.Model == "" {
		cfg.Providers.OpenAI.Model = "gpt-4"
	}
	if cfg.Providers.OpenAI.MaxTokens == 0 {
		cfg.Providers.OpenAI.MaxTokens = 2000
	}
	if cfg.Providers.OpenAI.Temperature == nil {
		temperature := 0.7
		cfg.Providers.OpenAI.Temperature = &temperature
	}
	if cfg.Providers.Anthropic.BaseURL == "" {
		cfg.Providers.Anthropic.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Providers.Anthropic.Model == "" {
		cfg.Providers.Anthropic.Model = "claude-3-sonnet-20240229"
	}
	if cfg.Providers.Anthropic.MaxTokens == 0 {
		cfg.Providers.Anthropic.MaxTokens = 2000
	}
	if cfg.Providers.Anthropic.Version == "" {
		cfg.Providers.Anthropic.Version = "2023-06-01"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 3600000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 5
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 90000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	return validation.Errors{
		"providers": validation.ValidateStruct(&cfg.Providers,
			validation.Field(&cfg.Providers.Default, validation.Required, validation.In(ProviderOpenAI, ProviderAnthropic)),
			validation.Field(&cfg.Providers.Timeout, validation.Min(0)),
			validation.Field(&cfg.Providers.OpenAI),
			validation.Field(&cfg.Providers.Anthropic),
		),
		"cache.redis": validation.ValidateStruct(&cfg.Cache.Redis,
			validation.Field(&cfg.Cache.Redis.Address, validation.When(cfg.Cache.Enabled, validation.Required)),
		),
		"camunda": validation.ValidateStruct(&cfg.Camunda,
			validation.Field(&cfg.Camunda.BrokerAddress, validation.When(cfg.Camunda.Enabled, validation.Required)),
			validation.Field(&cfg.Camunda.MaxJobsActive, validation.Min(1)),
		),
	}.Filter()
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
