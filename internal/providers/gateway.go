package providers

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "drone-configurator/internal/common/errors"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/common/metrics"
)

var tracer = otel.Tracer("drone-configurator/providers")

// Gateway is the read-only registry of providers keyed by id. It is built
// once at start and shared by concurrent requests.
type Gateway struct {
	providers map[string]Provider
	logger    logger.Logger
}

// NewGateway registers the given providers. Registering two providers
// under the same id is a configuration error.
func NewGateway(log logger.Logger, providers ...Provider) (*Gateway, error) {
	g := &Gateway{
		providers: make(map[string]Provider, len(providers)),
		logger:    log.With(map[string]interface{}{"component": "provider-gateway"}),
	}
	for _, p := range providers {
		if _, dup := g.providers[p.ID()]; dup {
			return nil, fmt.Errorf("provider %q registered twice", p.ID())
		}
		g.providers[p.ID()] = p
	}
	return g, nil
}

// Providers lists the registered ids in sorted order.
func (g *Gateway) Providers() []string {
	ids := make([]string, 0, len(g.providers))
	for id := range g.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Available reports whether providerID is registered and has a credential.
func (g *Gateway) Available(providerID string) bool {
	p, ok := g.providers[providerID]
	return ok && p.Available()
}

// Attempt makes at most one call to providerID. An unknown or unusable
// provider is skipped without touching the network.
func (g *Gateway) Attempt(ctx context.Context, providerID, prompt string) (result AttemptResult) {
	ctx, span := tracer.Start(ctx, "provider.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider.id", providerID)),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			result = failed(providerID, apperrors.NewProviderRequestFailedError(providerID, fmt.Errorf("panic: %v", r)), 0)
		}
		g.record(span, result)
	}()

	p, ok := g.providers[providerID]
	if !ok || !p.Available() {
		return skipped(providerID)
	}

	return p.Generate(ctx, prompt)
}

func (g *Gateway) record(span trace.Span, result AttemptResult) {
	outcome := "failed"
	switch {
	case result.Succeeded && result.Cached:
		outcome = "cached"
	case result.Succeeded:
		outcome = "success"
	case result.Skipped:
		outcome = "skipped"
	}
	metrics.ProviderAttempts.WithLabelValues(result.ProviderID, outcome).Inc()
	span.SetAttributes(attribute.String("provider.outcome", outcome))

	fields := map[string]interface{}{
		"provider":  result.ProviderID,
		"outcome":   outcome,
		"latencyMs": result.Latency.Milliseconds(),
	}
	switch outcome {
	case "failed":
		fields["errorCode"] = string(result.Code())
		fields["reason"] = result.FailureReason()
		span.SetStatus(codes.Error, string(result.Code()))
		g.logger.Warn("provider attempt failed", fields)
	case "skipped":
		g.logger.Debug("provider unavailable, skipping", fields)
	default:
		fields["answerLength"] = len(result.RawText)
		g.logger.Info("provider answered", fields)
	}
}
