// Package specgen turns a natural-language drone build request into a
// conversational answer plus an optional structured specification.
//
// The flow is fixed: validate, compose the prompt, make at most one attempt
// against the caller's preferred provider, fall back to the local
// synthesizer when that attempt yields no usable answer, extract the
// structured block and assemble the outcome. Every well-formed request
// succeeds; only caller errors and unanticipated faults fail.
package specgen

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	apperrors "drone-configurator/internal/common/errors"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/common/metrics"
	"drone-configurator/internal/models"
	"drone-configurator/internal/providers"
)

var tracer = otel.Tracer("drone-configurator/specgen")

// SourceFallback names the local synthesizer in logs.
const SourceFallback = "fallback"

// Options wires a Pipeline. Gateway and Logger are required.
type Options struct {
	Composer  *Composer
	Gateway   *providers.Gateway
	Fallback  *FallbackSynthesizer
	Extractor Extractor
	// DefaultProvider is used when a request names no model.
	DefaultProvider string
	// AttemptTimeout bounds the single provider attempt. Zero leaves only
	// the HTTP client timeout in place.
	AttemptTimeout time.Duration
	Logger         logger.Logger
}

// Pipeline is safe for concurrent use; it holds only read-only state.
type Pipeline struct {
	composer        *Composer
	gateway         *providers.Gateway
	fallback        *FallbackSynthesizer
	extractor       Extractor
	defaultProvider string
	attemptTimeout  time.Duration
	logger          logger.Logger
}

func New(opts Options) (*Pipeline, error) {
	if opts.Gateway == nil {
		return nil, errors.New("specgen: gateway is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("specgen: logger is required")
	}
	if opts.Composer == nil {
		opts.Composer = NewComposer("")
	}
	if opts.Fallback == nil {
		opts.Fallback = NewFallbackSynthesizer()
	}
	if opts.Extractor == nil {
		opts.Extractor = NewBraceExtractor()
	}
	if opts.DefaultProvider == "" {
		opts.DefaultProvider = string(models.DefaultModel)
	}

	return &Pipeline{
		composer:        opts.Composer,
		gateway:         opts.Gateway,
		fallback:        opts.Fallback,
		extractor:       opts.Extractor,
		defaultProvider: opts.DefaultProvider,
		attemptTimeout:  opts.AttemptTimeout,
		logger:          opts.Logger.With(map[string]interface{}{"component": "specgen"}),
	}, nil
}

// Readiness describes which registered providers hold a credential.
type Readiness struct {
	DefaultProvider string          `json:"defaultProvider"`
	Providers       map[string]bool `json:"providers"`
}

// Ready reports whether the default provider can be called. Requests are
// still answered by the fallback when it cannot.
func (r Readiness) Ready() bool {
	return r.Providers[r.DefaultProvider]
}

func (p *Pipeline) Readiness() Readiness {
	r := Readiness{
		DefaultProvider: p.defaultProvider,
		Providers:       make(map[string]bool),
	}
	for _, id := range p.gateway.Providers() {
		r.Providers[id] = p.gateway.Available(id)
	}
	return r
}

// Handle validates a raw transport call and runs the pipeline.
func (p *Pipeline) Handle(ctx context.Context, method string, body []byte) *models.PipelineOutcome {
	if err := ValidateMethod(method); err != nil {
		return AssembleError(err)
	}
	req, err := ParseBuildRequest(body)
	if err != nil {
		return AssembleError(err)
	}
	return p.Generate(ctx, *req)
}

// Generate runs the pipeline for an already validated request. It never
// panics; unanticipated faults become the internal-failure outcome.
func (p *Pipeline) Generate(ctx context.Context, req models.BuildRequest) (outcome *models.PipelineOutcome) {
	ctx, span := tracer.Start(ctx, "specgen.generate")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("specification pipeline panicked", map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			})
			outcome = AssembleInternalFault()
		}
	}()

	if req.Prompt == "" {
		return AssembleError(apperrors.NewPromptRequiredError("empty prompt"))
	}

	providerID := req.ProviderID(p.defaultProvider)
	span.SetAttributes(attribute.String("provider.preferred", providerID))

	composed := p.composer.Compose(req.Prompt)
	result := p.attempt(ctx, providerID, composed)

	text, source := result.RawText, providerID
	if !result.Succeeded {
		reason := fallbackReason(result)
		metrics.FallbackAnswers.WithLabelValues(reason).Inc()
		p.logger.Info("no usable provider answer, using fallback", map[string]interface{}{
			"provider": providerID,
			"reason":   reason,
		})
		text, source = p.fallback.Synthesize(req.Prompt), SourceFallback
	}

	spec := p.extract(text, source)
	span.SetAttributes(
		attribute.String("answer.source", source),
		attribute.Bool("spec.present", spec != nil),
	)

	return AssembleSuccess(text, spec)
}

func (p *Pipeline) attempt(ctx context.Context, providerID, composed string) providers.AttemptResult {
	if p.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.attemptTimeout)
		defer cancel()
	}
	return p.gateway.Attempt(ctx, providerID, composed)
}

func (p *Pipeline) extract(text, source string) models.ExtractedSpec {
	spec, err := p.extractor.Extract(text)
	if err != nil {
		code := apperrors.CodeOf(err)
		result := "not_found"
		if code == apperrors.ErrCodeSpecMalformed {
			result = "malformed"
			p.logger.Warn("structured specification could not be decoded", map[string]interface{}{
				"source": source,
				"error":  err.Error(),
			})
		} else {
			p.logger.Info("answer has no structured specification", map[string]interface{}{
				"source": source,
			})
		}
		metrics.SpecExtractions.WithLabelValues(result).Inc()
		return nil
	}

	metrics.SpecExtractions.WithLabelValues("ok").Inc()
	p.logger.Debug("structured specification extracted", map[string]interface{}{
		"source":   source,
		"specKeys": spec.Keys(),
	})
	return spec
}

func fallbackReason(result providers.AttemptResult) string {
	switch result.Code() {
	case apperrors.ErrCodeProviderUnavailable:
		return "unavailable"
	case apperrors.ErrCodeProviderTimeout:
		return "timeout"
	case apperrors.ErrCodeProviderBadStatus:
		return "bad_status"
	case apperrors.ErrCodeProviderDecodeFailed:
		return "decode_failed"
	case apperrors.ErrCodeProviderRequestFailed:
		return "request_failed"
	}
	return "unknown"
}
