package specgen

import (
	"encoding/json"
	"net/http"
	"strings"

	apperrors "drone-configurator/internal/common/errors"
	"drone-configurator/internal/common/validation"
	"drone-configurator/internal/models"
)

// buildRequestSchema only constrains the prompt. The model field is read
// leniently: anything that is not a non-empty string means the default.
var buildRequestSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["prompt"],
	"properties": {
		"prompt": {"type": "string", "minLength": 1}
	}
}`)

// ValidateMethod accepts POST only.
func ValidateMethod(method string) *apperrors.StandardError {
	if method != http.MethodPost {
		return apperrors.NewMethodNotAllowedError(method)
	}
	return nil
}

// ParseBuildRequest validates a raw JSON body and returns the request. An
// absent model leaves Model empty so the configured default applies.
// Every shape problem, including undecodable JSON, is reported as a
// missing prompt.
func ParseBuildRequest(body []byte) (*models.BuildRequest, *apperrors.StandardError) {
	result, err := buildRequestSchema.Validate(body)
	if err != nil {
		return nil, apperrors.NewPromptRequiredError(err.Error())
	}
	if !result.Valid {
		field := "body"
		if result.HasErrors("prompt") {
			field = "prompt"
		}
		return nil, apperrors.NewPromptRequiredError(field + ": " + strings.Join(result.GetErrorMessages(), "; "))
	}

	var raw struct {
		Prompt string          `json:"prompt"`
		Model  json.RawMessage `json:"model"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apperrors.NewPromptRequiredError(err.Error())
	}

	req := &models.BuildRequest{Prompt: raw.Prompt}
	var model string
	if len(raw.Model) > 0 && json.Unmarshal(raw.Model, &model) == nil && model != "" {
		req.Model = models.ModelPreference(model)
	}
	return req, nil
}
