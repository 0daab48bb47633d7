// internal/workers/sync/sync-client/handler.go
package syncclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"formdesk-workers/internal/common/aws"
	"formdesk-workers/internal/common/errors"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/common/metrics"
	"formdesk-workers/internal/models"
	"formdesk-workers/internal/syncstate"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "sync-client"

// SyncInvoker triggers the synchronization pass on a client site.
type SyncInvoker interface {
	InvokeSync(ctx context.Context, siteURL, clientID string) (models.SyncResult, error)
}

// SNSService publishes the completion notice. Satisfied by the common SNS
// client.
type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	invoker      SyncInvoker
	reducer      *syncstate.Reducer
	sns          SNSService
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger, invoker SyncInvoker, reducer *syncstate.Reducer, snsService SNSService) *Handler {
	return &Handler{
		config:       config,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		invoker:      invoker,
		reducer:      reducer,
		sns:          snsService,
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
	if input.ClientID == "" || input.SiteURL == "" {
		h.fail(client, job, errors.NewSubmissionParseFailedError(fmt.Errorf("clientId and siteUrl are required")))
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

// Execute runs the sync and records its outcome in the transient status
// reducer either way. A failed completion notice does not fail the sync;
// the counts are already committed on the client site.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.invoker.InvokeSync(ctx, input.SiteURL, input.ClientID)
	if err != nil {
		h.reducer.SetFailure(input.ClientID, err)
		return nil, errors.NewSyncFailedError(input.ClientID, err)
	}

	h.reducer.SetSuccess(input.ClientID, result)
	h.logger.Info("sync complete",
		map[string]interface{}{
			"clientId": input.ClientID,
			"synced":   result.Synced,
			"skipped":  result.Skipped,
		})

	output := &Output{Synced: result.Synced, Skipped: result.Skipped}

	if h.config.NoticeEnabled && h.sns != nil {
		notice := aws.BuildSyncNotice(h.config.TopicARN, input.ClientName, result.Synced, result.Skipped)
		if _, err := h.sns.Publish(ctx, notice); err != nil {
			h.logger.Warn("sync notice publish failed",
				map[string]interface{}{
					"clientId":  input.ClientID,
					"errorCode": string(errors.ErrCodeSyncNoticeFailed),
					"error":     err.Error(),
				})
		} else {
			output.NoticeSent = true
		}
	}

	return output, nil
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
