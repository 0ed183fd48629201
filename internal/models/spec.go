package models

import (
	"encoding/json"
	"sort"

	apperrors "drone-configurator/internal/common/errors"
)

// ModelPreference names the provider a caller would like to answer.
type ModelPreference string

const (
	// ModelOpenAI is the primary provider and the default.
	ModelOpenAI ModelPreference = "openai"
	// ModelAnthropic is the secondary provider.
	ModelAnthropic ModelPreference = "anthropic"
)

// DefaultModel is used when a request does not state a preference.
const DefaultModel = ModelOpenAI

// BuildRequest is a validated inbound request.
type BuildRequest struct {
	Prompt string          `json:"prompt"`
	Model  ModelPreference `json:"model,omitempty"`
}

// ProviderID returns the registry key of the preferred provider, or
// defaultID when the request states no preference.
func (r BuildRequest) ProviderID(defaultID string) string {
	if r.Model != "" {
		return string(r.Model)
	}
	if defaultID != "" {
		return defaultID
	}
	return string(DefaultModel)
}

// Well-known specification keys. None of them is required.
const (
	SpecFrame               = "frame"
	SpecMotors              = "motors"
	SpecESCs                = "escs"
	SpecBattery             = "battery"
	SpecFlightController    = "flightController"
	SpecProps               = "props"
	SpecEstimatedCost       = "estimatedCost"
	SpecEstimatedFlightTime = "estimatedFlightTime"
	SpecEstimatedPayload    = "estimatedPayload"
)

// SpecKeys lists the keys the composed prompt asks providers for.
var SpecKeys = []string{
	SpecFrame,
	SpecMotors,
	SpecESCs,
	SpecBattery,
	SpecFlightController,
	SpecProps,
	SpecEstimatedCost,
	SpecEstimatedFlightTime,
	SpecEstimatedPayload,
}

// ExtractedSpec is the decoded structured block. Its shape is not
// validated beyond being a JSON object.
type ExtractedSpec map[string]interface{}

// Keys returns the top-level keys in sorted order.
func (s ExtractedSpec) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Present returns nil when no block was extracted and a pointer otherwise,
// so an omitempty pointer field still carries an empty object.
func (s ExtractedSpec) Present() *ExtractedSpec {
	if s == nil {
		return nil
	}
	return &s
}

// PipelineOutcome is the only externally visible result of the pipeline.
type PipelineOutcome struct {
	Success  bool          `json:"success"`
	Response string        `json:"response,omitempty"`
	Specs    ExtractedSpec `json:"specs,omitempty"`
	Error    string        `json:"error,omitempty"`

	// Code selects the transport status and is never serialized.
	Code apperrors.ErrorCode `json:"-"`
}

// MarshalJSON omits specs only when none was extracted.
func (o PipelineOutcome) MarshalJSON() ([]byte, error) {
	type wire PipelineOutcome
	return json.Marshal(struct {
		wire
		Specs *ExtractedSpec `json:"specs,omitempty"`
	}{wire: wire(o), Specs: o.Specs.Present()})
}

// StatusCode returns the HTTP status for the outcome.
func (o *PipelineOutcome) StatusCode() int {
	return apperrors.HTTPStatus(o.Code)
}
