package providers

import (
	"encoding/json"
	"errors"
	"net/http"

	commonhttp "drone-configurator/internal/common/http"
)

// NewOpenAI creates the Chat Completions adapter.
func NewOpenAI(cfg Config, client *commonhttp.Client) Provider {
	if cfg.ID == "" {
		cfg.ID = "openai"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4"
	}
	return &httpProvider{cfg: cfg, client: client, env: openAIEnvelope{}}
}

type openAIEnvelope struct{}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (openAIEnvelope) path() string { return "/chat/completions" }

func (openAIEnvelope) shape(cfg Config, prompt string) (http.Header, interface{}) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+cfg.APIKey)

	return headers, chatRequest{
		Model:       cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

func (openAIEnvelope) answer(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
