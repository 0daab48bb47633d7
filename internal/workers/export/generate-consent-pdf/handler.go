// internal/workers/export/generate-consent-pdf/handler.go
package generateconsentpdf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"formdesk-workers/internal/common/errors"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/common/metrics"
	"formdesk-workers/internal/export/pdf"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "generate-consent-pdf"

type Handler struct {
	config       *Config
	logger       logger.Logger
	generator    *pdf.Generator
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger, generator *pdf.Generator) *Handler {
	return &Handler{
		config:       config,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		generator:    generator,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job",
		map[string]interface{}{
			"jobKey":      job.Key,
			"workflowKey": job.ProcessInstanceKey,
		})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewSubmissionParseFailedError(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.ExportJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.ExportJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute renders the consent report. Missing signatures and fields degrade
// inside the generator; only the document engine itself can fail here.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	report, err := h.generator.Generate(ctx, input.Submission, input.Client)
	if err != nil {
		return nil, errors.NewPDFRenderFailedError(err)
	}

	metrics.ExportRows.WithLabelValues("pdf").Inc()
	if len(report.SignatureFallbacks) > 0 {
		h.logger.Warn("report generated with signature placeholders",
			map[string]interface{}{
				"fileName":  report.FileName,
				"fallbacks": report.SignatureFallbacks,
			})
	}

	return &Output{
		FileName:           report.FileName,
		Document:           base64.StdEncoding.EncodeToString(report.Data),
		Pages:              report.Pages,
		SignatureFallbacks: report.SignatureFallbacks,
		ArtifactID:         uuid.NewString(),
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := err.(*errors.StandardError); ok {
		code = string(stdErr.Code)
	}
	metrics.ExportJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}
