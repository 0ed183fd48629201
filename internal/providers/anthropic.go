package providers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	commonhttp "drone-configurator/internal/common/http"
)

const defaultAnthropicVersion = "2023-06-01"

// NewAnthropic creates the Messages API adapter.
func NewAnthropic(cfg Config, client *commonhttp.Client) Provider {
	if cfg.ID == "" {
		cfg.ID = "anthropic"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.anthropic.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-sonnet-20240229"
	}
	if cfg.Version == "" {
		cfg.Version = defaultAnthropicVersion
	}
	if cfg.MaxTokens == 0 {
		// max_tokens is mandatory for this API
		cfg.MaxTokens = 2000
	}
	return &httpProvider{cfg: cfg, client: client, env: anthropicEnvelope{}}
}

type anthropicEnvelope struct{}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (anthropicEnvelope) path() string { return "/messages" }

func (anthropicEnvelope) shape(cfg Config, prompt string) (http.Header, interface{}) {
	headers := http.Header{}
	headers.Set("x-api-key", cfg.APIKey)
	headers.Set("anthropic-version", cfg.Version)

	return headers, messagesRequest{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
	}
}

func (anthropicEnvelope) answer(body []byte) (string, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errors.New("no content blocks in response")
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
