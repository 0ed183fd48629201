// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobErrorHandler reports pipeline errors back to Zeebe. Caller errors are
// thrown as BPMN errors so the process can route on them; everything else
// fails the job with no retries left.
type JobErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewJobErrorHandler(logger Logger) *JobErrorHandler {
	return &JobErrorHandler{logger: logger}
}

// HandleJobError handles any error in a worker job
func (h *JobErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := AsStandardError(err)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"message":          stdErr.Message,
		"details":          stdErr.Details,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})

	if IsCallerError(stdErr.Code) {
		h.throwBPMNError(ctx, client, job, stdErr)
		return
	}
	h.failJob(ctx, client, job, stdErr)
}

// ErrorVariables returns the process variables attached to a thrown error.
func ErrorVariables(stdErr *StandardError) map[string]interface{} {
	return map[string]interface{}{
		"success":   false,
		"error":     stdErr.Message,
		"errorCode": string(stdErr.Code),
	}
}

func (h *JobErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *StandardError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(string(stdErr.Code)).
		ErrorMessage(stdErr.Message)

	if varsJSON, err := json.Marshal(ErrorVariables(stdErr)); err == nil {
		if cmdWithVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, _ = cmdWithVars.Send(ctx)
			return
		}
	}

	_, _ = cmd.Send(ctx)
}

func (h *JobErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *StandardError) {
	// The internal-fault message is generic; details stay in the log.
	_, _ = client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(stdErr.Message).
		Send(ctx)
}
