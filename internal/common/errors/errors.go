// Package errors provides the error taxonomy shared by the specification
// pipeline, its HTTP surface and its Zeebe job worker.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Caller errors are surfaced verbatim and never retried.
const (
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodePromptRequired   ErrorCode = "PROMPT_REQUIRED"
)

// Provider errors are recovered locally and trigger the fallback answer.
const (
	ErrCodeProviderUnavailable   ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderRequestFailed ErrorCode = "PROVIDER_REQUEST_FAILED"
	ErrCodeProviderTimeout       ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderBadStatus     ErrorCode = "PROVIDER_BAD_STATUS"
	ErrCodeProviderDecodeFailed  ErrorCode = "PROVIDER_DECODE_FAILED"
)

// Extraction errors leave the outcome successful with no specs.
const (
	ErrCodeSpecNotFound  ErrorCode = "SPEC_NOT_FOUND"
	ErrCodeSpecMalformed ErrorCode = "SPEC_MALFORMED"
)

const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

// Caller-visible messages.
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgPromptRequired   = "Prompt is required"
	MsgInternal         = "Failed to generate specifications"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewMethodNotAllowedError rejects an unsupported verb.
func NewMethodNotAllowedError(method string) *StandardError {
	return newError(ErrCodeMethodNotAllowed, MsgMethodNotAllowed, fmt.Sprintf("method: %s", method), false, nil)
}

// NewPromptRequiredError rejects a request without a usable prompt.
func NewPromptRequiredError(details string) *StandardError {
	return newError(ErrCodePromptRequired, MsgPromptRequired, details, false, nil)
}

// NewProviderUnavailableError marks a provider that has no credential or is not registered.
func NewProviderUnavailableError(providerID string) *StandardError {
	return newError(ErrCodeProviderUnavailable, "Provider unavailable", fmt.Sprintf("provider: %s", providerID), false, nil)
}

// NewProviderRequestFailedError wraps a transport failure.
func NewProviderRequestFailedError(providerID string, err error) *StandardError {
	return newError(ErrCodeProviderRequestFailed, "Provider request failed",
		fmt.Sprintf("provider: %s, error: %v", providerID, err), true, err)
}

// NewProviderTimeoutError marks an attempt that exceeded its deadline.
func NewProviderTimeoutError(providerID string, err error) *StandardError {
	return newError(ErrCodeProviderTimeout, "Provider request timed out",
		fmt.Sprintf("provider: %s", providerID), true, err)
}

// NewProviderBadStatusError records a non-success response status.
func NewProviderBadStatusError(providerID string, status int, body string) *StandardError {
	e := newError(ErrCodeProviderBadStatus, "Provider returned non-success status",
		fmt.Sprintf("provider: %s, status: %d", providerID, status), status >= 500 || status == http.StatusTooManyRequests, nil)
	e.Metadata = map[string]interface{}{"status": status}
	if body != "" {
		e.Metadata["body"] = truncate(body, 512)
	}
	return e
}

// NewProviderDecodeFailedError records an unusable response envelope.
func NewProviderDecodeFailedError(providerID string, err error) *StandardError {
	return newError(ErrCodeProviderDecodeFailed, "Provider response could not be decoded",
		fmt.Sprintf("provider: %s, error: %v", providerID, err), false, err)
}

// NewSpecNotFoundError records an answer without a structured block.
func NewSpecNotFoundError() *StandardError {
	return newError(ErrCodeSpecNotFound, "No structured specification in answer", "", false, nil)
}

// NewSpecMalformedError records a candidate block that failed to decode.
func NewSpecMalformedError(err error) *StandardError {
	return newError(ErrCodeSpecMalformed, "Structured specification is malformed", err.Error(), false, err)
}

// NewInternalError wraps an unanticipated fault. Details are for logs only.
func NewInternalError(details string) *StandardError {
	return newError(ErrCodeInternal, MsgInternal, details, false, nil)
}

// AsStandardError normalizes any error to a StandardError.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, MsgInternal, err.Error(), false, err)
}

// CodeOf returns the error code carried by err. Errors that are not a
// StandardError report INTERNAL_ERROR and nil reports the empty code.
func CodeOf(err error) ErrorCode {
	if stdErr := AsStandardError(err); stdErr != nil {
		return stdErr.Code
	}
	return ""
}

// HTTPStatus maps an error code to the status returned to callers.
// Provider and extraction codes never reach callers; they map to 200
// because the outcome that carries them is still a success.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case "":
		return http.StatusOK
	case ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrCodePromptRequired:
		return http.StatusBadRequest
	case ErrCodeInternal:
		return http.StatusInternalServerError
	}
	switch GetErrorCategory(code) {
	case CategoryProvider, CategoryExtraction:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// IsCallerError reports whether code is a caller error.
func IsCallerError(code ErrorCode) bool {
	return GetErrorCategory(code) == CategoryCaller
}

const (
	CategoryCaller     = "CALLER"
	CategoryProvider   = "PROVIDER"
	CategoryExtraction = "EXTRACTION"
	CategoryInternal   = "INTERNAL"
)

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeMethodNotAllowed || code == ErrCodePromptRequired:
		return CategoryCaller
	case strings.HasPrefix(codeStr, "PROVIDER_"):
		return CategoryProvider
	case strings.HasPrefix(codeStr, "SPEC_"):
		return CategoryExtraction
	default:
		return CategoryInternal
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
