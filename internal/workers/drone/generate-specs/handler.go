// internal/workers/drone/generate-specs/handler.go
package generatespecs

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "drone-configurator/internal/common/errors"
	"drone-configurator/internal/common/logger"
	"drone-configurator/internal/common/metrics"
	"drone-configurator/internal/common/observability"
	"drone-configurator/internal/models"
	"drone-configurator/internal/specgen"
)

const (
	TaskType = "generate-drone-specs"

	transportJob  = "zeebe"
	transportHTTP = "http"
)

// Pipeline is the part of specgen.Pipeline both transports need.
type Pipeline interface {
	Handle(ctx context.Context, method string, body []byte) *models.PipelineOutcome
	Generate(ctx context.Context, req models.BuildRequest) *models.PipelineOutcome
}

type Handler struct {
	config     *Config
	pipeline   Pipeline
	obs        *observability.Observability
	errHandler *apperrors.JobErrorHandler
	logger     logger.Logger
}

// NewHandler serves the pipeline as a Zeebe job worker and as an HTTP
// handler. obs may be nil.
func NewHandler(config *Config, pipeline Pipeline, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		pipeline:   pipeline,
		obs:        obs,
		errHandler: apperrors.NewJobErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	start := time.Now()
	metrics.RequestsActive.WithLabelValues(transportJob).Inc()
	defer metrics.RequestsActive.WithLabelValues(transportJob).Dec()

	ctx := context.Background()
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	req, verr := specgen.ParseBuildRequest([]byte(job.Variables))
	if verr != nil {
		h.record(ctx, transportJob, string(verr.Code), start)
		h.errHandler.HandleJobError(ctx, client, job, verr)
		return
	}

	output, err := h.Execute(ctx, &Input{Prompt: req.Prompt, Model: string(req.Model)})
	if err != nil {
		h.record(ctx, transportJob, string(apperrors.CodeOf(err)), start)
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	h.record(ctx, transportJob, "completed", start)
}

// Execute runs the pipeline for one job input. A non-nil error carries the
// caller or internal code of the failed outcome.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	outcome := h.pipeline.Generate(ctx, models.BuildRequest{
		Prompt: input.Prompt,
		Model:  models.ModelPreference(input.Model),
	})
	if !outcome.Success {
		return nil, outcomeError(outcome)
	}
	return &Output{
		Success:  true,
		Response: outcome.Response,
		Specs:    outcome.Specs,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, apperrors.NewInternalError(err.Error()))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":   job.Key,
		"hasSpecs": output.Specs != nil,
	})
}

func (h *Handler) record(ctx context.Context, transport, status string, start time.Time) {
	metrics.SpecRequests.WithLabelValues(transport, status).Inc()
	h.obs.RecordRequest(ctx, time.Since(start), transport, status)
}

func outcomeError(outcome *models.PipelineOutcome) *apperrors.StandardError {
	switch outcome.Code {
	case apperrors.ErrCodePromptRequired:
		return apperrors.NewPromptRequiredError("")
	case apperrors.ErrCodeMethodNotAllowed:
		return apperrors.NewMethodNotAllowedError("")
	}
	return apperrors.NewInternalError(outcome.Error)
}
