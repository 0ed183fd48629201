// Package providers adapts external text-generation services to a single
// capability: given a prompt, return free text or a typed failure.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	apperrors "drone-configurator/internal/common/errors"
	commonhttp "drone-configurator/internal/common/http"
	"drone-configurator/internal/common/metrics"
)

// Provider produces free text from a prompt. Generate never returns an
// error value; every failure is recorded in the AttemptResult.
type Provider interface {
	ID() string
	Model() string
	// Available reports whether the provider has a credential.
	Available() bool
	Generate(ctx context.Context, prompt string) AttemptResult
}

// AttemptResult is the outcome of one attempt against one provider.
type AttemptResult struct {
	ProviderID string
	Succeeded  bool
	// Skipped is set when no network call was made because the provider
	// is unusable. It is a normal branch, not a failure.
	Skipped bool
	Cached  bool
	RawText string
	Err     *apperrors.StandardError
	Latency time.Duration
}

// FailureReason returns the proximate cause of an unsuccessful attempt.
func (r AttemptResult) FailureReason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Code returns the error code of an unsuccessful attempt.
func (r AttemptResult) Code() apperrors.ErrorCode {
	if r.Err == nil {
		return ""
	}
	return r.Err.Code
}

func skipped(providerID string) AttemptResult {
	return AttemptResult{
		ProviderID: providerID,
		Skipped:    true,
		Err:        apperrors.NewProviderUnavailableError(providerID),
	}
}

func failed(providerID string, err *apperrors.StandardError, latency time.Duration) AttemptResult {
	return AttemptResult{ProviderID: providerID, Err: err, Latency: latency}
}

// Config is the immutable per-provider configuration. An empty APIKey makes
// the provider unavailable for the life of the process.
type Config struct {
	ID          string
	APIKey      string
	Endpoint    string
	Model       string
	MaxTokens   int
	// Temperature is sent only when set; zero is a valid setting.
	Temperature *float64
	// Version is the API version header, where the provider has one.
	Version string
}

// envelope shapes the provider-specific request and decodes the answer
// out of the provider-specific response.
type envelope interface {
	path() string
	shape(cfg Config, prompt string) (http.Header, interface{})
	answer(body []byte) (string, error)
}

// httpProvider runs the shared request/response cycle for every adapter.
type httpProvider struct {
	cfg    Config
	client *commonhttp.Client
	env    envelope
}

func (p *httpProvider) ID() string      { return p.cfg.ID }
func (p *httpProvider) Model() string   { return p.cfg.Model }
func (p *httpProvider) Available() bool { return p.cfg.APIKey != "" }

func (p *httpProvider) url() string {
	return strings.TrimRight(p.cfg.Endpoint, "/") + p.env.path()
}

func (p *httpProvider) Generate(ctx context.Context, prompt string) (result AttemptResult) {
	if !p.Available() {
		return skipped(p.cfg.ID)
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = failed(p.cfg.ID, apperrors.NewProviderDecodeFailedError(p.cfg.ID, fmt.Errorf("panic: %v", r)), time.Since(start))
		}
	}()

	headers, payload := p.env.shape(p.cfg, prompt)
	resp, err := p.client.PostJSON(ctx, p.url(), headers, payload)
	latency := time.Since(start)
	metrics.ProviderLatency.WithLabelValues(p.cfg.ID).Observe(latency.Seconds())

	if err != nil {
		if isTimeout(ctx, err) {
			return failed(p.cfg.ID, apperrors.NewProviderTimeoutError(p.cfg.ID, err), latency)
		}
		return failed(p.cfg.ID, apperrors.NewProviderRequestFailedError(p.cfg.ID, err), latency)
	}

	if !resp.OK() {
		return failed(p.cfg.ID, apperrors.NewProviderBadStatusError(p.cfg.ID, resp.StatusCode, string(resp.Body)), latency)
	}

	text, err := p.env.answer(resp.Body)
	if err != nil {
		return failed(p.cfg.ID, apperrors.NewProviderDecodeFailedError(p.cfg.ID, err), latency)
	}
	if strings.TrimSpace(text) == "" {
		return failed(p.cfg.ID, apperrors.NewProviderDecodeFailedError(p.cfg.ID, errors.New("empty answer")), latency)
	}

	return AttemptResult{
		ProviderID: p.cfg.ID,
		Succeeded:  true,
		RawText:    text,
		Latency:    latency,
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
