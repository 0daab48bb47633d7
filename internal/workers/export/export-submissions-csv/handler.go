// internal/workers/export/export-submissions-csv/handler.go
package exportsubmissionscsv

import (
	"context"
	"encoding/json"
	"time"

	"formdesk-workers/internal/common/aws"
	"formdesk-workers/internal/common/errors"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/common/metrics"
	"formdesk-workers/internal/export/csvexport"
	"formdesk-workers/internal/export/schema"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "export-submissions-csv"

// SESService sends the rendered artifact to a recipient. Satisfied by the
// common SES client.
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	ses          SESService
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger, sesService SESService) *Handler {
	return &Handler{
		config:       config,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		ses:          sesService,
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

// Execute renders the CSV artifact. An empty submission set completes the
// job with a no-op notice rather than failing it; the process model decides
// what to show the operator.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	inference := schema.Inference{
		HasCompoundName: input.HasCompoundName,
		DataKeys:        input.DataKeys,
	}

	export, ok := csvexport.Render(input.Submissions, inference, stemFromFormName(input.FormName))
	if !ok {
		h.logger.Info("nothing to export", map[string]interface{}{"formName": input.FormName})
		return &Output{
			Exported: false,
			Notice:   "No submissions in the selected range",
		}, nil
	}

	metrics.ExportRows.WithLabelValues("csv").Add(float64(export.Rows))

	output := &Output{
		Exported:   true,
		FileName:   export.FileName,
		Content:    export.Content,
		RowCount:   export.Rows,
		ArtifactID: uuid.NewString(),
	}

	if input.Recipient != "" && h.config.EmailEnabled && h.ses != nil {
		email := aws.BuildReportEmail(h.config.FromEmail, input.Recipient, export.FileName, export.Content)
		if _, err := h.ses.SendEmail(ctx, email); err != nil {
			return nil, errors.NewReportDeliveryFailedError("email", err)
		}
		output.Delivered = true
	}

	return output, nil
}

// stemFromFormName lowercases and hyphenates the form name into a file stem.
func stemFromFormName(name string) string {
	stem := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			stem = append(stem, r)
		case r >= 'A' && r <= 'Z':
			stem = append(stem, r+('a'-'A'))
		case r == ' ' || r == '-' || r == '_':
			stem = append(stem, '-')
		}
	}
	return string(stem)
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
