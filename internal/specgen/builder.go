package specgen

import (
	"fmt"

	"drone-configurator/internal/common/config"
	commonhttp "drone-configurator/internal/common/http"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/providers"
)

var constructors = map[string]func(providers.Config, *commonhttp.Client) providers.Provider{
	config.ProviderOpenAI:    providers.NewOpenAI,
	config.ProviderAnthropic: providers.NewAnthropic,
}

// NewFromConfig builds the provider registry and the pipeline from the
// loaded configuration. cache may be nil to disable answer caching.
func NewFromConfig(cfg *config.Config, cache providers.AnswerCache, log logger.Logger) (*Pipeline, error) {
	client := commonhttp.NewClient(config.GetDuration(cfg.Providers.Timeout))
	ttl := config.GetDuration(cfg.Cache.TTL)

	list := make([]providers.Provider, 0, len(config.ProviderIDs))
	for _, id := range config.ProviderIDs {
		pc, err := cfg.Providers.Provider(id)
		if err != nil {
			return nil, err
		}
		newProvider, ok := constructors[id]
		if !ok {
			return nil, fmt.Errorf("no adapter for provider %q", id)
		}

		p := newProvider(providerConfig(id, pc), client)
		if cache != nil {
			p = providers.NewCachedProvider(p, cache, ttl, log)
		}
		list = append(list, p)

		log.Info("provider registered", map[string]interface{}{
			"provider":   id,
			"model":      p.Model(),
			"credential": pc.HasCredential(),
			"cached":     cache != nil,
			"timeoutMs":  client.Timeout().Milliseconds(),
		})
	}

	if pc, err := cfg.Providers.Provider(cfg.Providers.Default); err == nil && !pc.HasCredential() {
		log.Warn("default provider has no credential, requests will be answered locally", map[string]interface{}{
			"provider": cfg.Providers.Default,
		})
	}

	gateway, err := providers.NewGateway(log, list...)
	if err != nil {
		return nil, err
	}

	return New(Options{
		Gateway:         gateway,
		DefaultProvider: cfg.Providers.Default,
		AttemptTimeout:  client.Timeout(),
		Logger:          log,
	})
}

func providerConfig(id string, pc config.ProviderConfig) providers.Config {
	return providers.Config{
		ID:          id,
		APIKey:      pc.APIKey,
		Endpoint:    pc.BaseURL,
		Model:       pc.Model,
		MaxTokens:   pc.MaxTokens,
		Temperature: pc.Temperature,
		Version:     pc.Version,
	}
}
