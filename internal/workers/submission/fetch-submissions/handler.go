// internal/workers/submission/fetch-submissions/handler.go
package fetchsubmissions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"formdesk-workers/internal/common/database"
	"formdesk-workers/internal/common/errors"
	"formdesk-workers/internal/common/logger"
	"formdesk-workers/internal/common/metrics"
	"formdesk-workers/internal/export/filter"
	"formdesk-workers/internal/export/schema"
	"formdesk-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const TaskType = "fetch-submissions"

const cacheKeyPrefix = "subs:"

// SubmissionFetcher is the client-site collaborator contract.
type SubmissionFetcher interface {
	FetchSubmissions(ctx context.Context, siteURL, formID string) ([]models.Submission, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	fetcher      SubmissionFetcher
	cache        *database.RedisClient
	errorHandler *errors.ErrorHandler
}

// NewHandler creates the handler. The cache is optional; when nil every job
// fetches from the client site directly.
func NewHandler(config *Config, log logger.Logger, fetcher SubmissionFetcher, cache *database.RedisClient) *Handler {
	return &Handler{
		config:       config,
		logger:       log.WithFields(map[string]interface{}{"taskType": TaskType}),
		fetcher:      fetcher,
		cache:        cache,
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
	if input.FormID == "" || input.SiteURL == "" {
		h.fail(client, job, errors.NewSubmissionParseFailedError(fmt.Errorf("formId and siteUrl are required")))
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

// Execute loads the form's submissions, infers the column schema from the
// full sequence, then narrows to the requested date window. Malformed date
// bounds behave as unbounded.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	subs, fromCache, err := h.loadSubmissions(ctx, input)
	if err != nil {
		return nil, err
	}

	inference := schema.Infer(subs)
	filtered := filter.Apply(subs, filter.ParseDate(input.StartDate), filter.ParseDate(input.EndDate))

	h.logger.Info("submissions loaded",
		map[string]interface{}{
			"formId":    input.FormID,
			"total":     len(subs),
			"filtered":  len(filtered),
			"fromCache": fromCache,
		})

	return &Output{
		Submissions:     filtered,
		TotalCount:      len(subs),
		FilteredCount:   len(filtered),
		HasCompoundName: inference.HasCompoundName,
		DataKeys:        inference.DataKeys,
		Columns:         inference.Columns,
		FromCache:       fromCache,
	}, nil
}

func (h *Handler) loadSubmissions(ctx context.Context, input *Input) ([]models.Submission, bool, error) {
	key := cacheKeyPrefix + input.FormID

	if h.cache != nil {
		cached, err := h.cache.Get(ctx, key)
		if err == nil {
			var subs []models.Submission
			if err := json.Unmarshal([]byte(cached), &subs); err == nil {
				return subs, true, nil
			}
			h.logger.Warn("cached snapshot unreadable, refetching",
				map[string]interface{}{"key": key})
		} else if err != redis.Nil {
			h.logger.Warn("cache read failed, fetching from site",
				map[string]interface{}{"key": key, "error": err.Error()})
		}
	}

	subs, err := h.fetcher.FetchSubmissions(ctx, input.SiteURL, input.FormID)
	if err != nil {
		return nil, false, errors.NewSubmissionFetchFailedError(input.SiteURL, err)
	}

	if h.cache != nil {
		if payload, err := json.Marshal(subs); err == nil {
			if err := h.cache.Set(ctx, key, payload, h.config.CacheTTL); err != nil {
				h.logger.Warn("cache write failed",
					map[string]interface{}{"key": key, "error": err.Error()})
			}
		}
	}

	return subs, false, nil
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
