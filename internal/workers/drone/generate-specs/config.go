// internal/workers/drone/generate-specs/config.go
package generatespecs

import (
	"time"

	"drone-configurator/internal/common/config"
)

type Config struct {
	// Timeout bounds one job; it covers the provider attempt plus fallback.
	Timeout      time.Duration
	MaxBodyBytes int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:      config.GetDuration(cfg.Camunda.Timeout),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
}
