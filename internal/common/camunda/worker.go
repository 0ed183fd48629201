package camunda

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"drone-configurator/internal/common/config"
	"drone-configurator/internal/common/logger"
)

// StartWorker opens a job worker for taskType. The caller closes it.
func StartWorker(client zbc.Client, taskType string, cfg config.CamundaConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(cfg.MaxJobsActive).
		Timeout(config.GetDuration(cfg.Timeout)).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": cfg.MaxJobsActive,
		"timeout_ms":    cfg.Timeout,
	})
	return jobWorker
}
