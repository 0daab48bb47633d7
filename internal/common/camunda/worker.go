// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"formdesk-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every task worker. Handlers complete or
// fail the job themselves through the JobClient.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives dispatch-level instrumentation for every polled job.
type JobRecorder interface {
	RecordJobReceived(ctx context.Context, taskType string)
	RecordHandlerDuration(ctx context.Context, taskType string, duration time.Duration)
}

type instrumentedHandler struct {
	taskType string
	next     JobHandler
	recorder JobRecorder
}

// Instrumented wraps a handler so every polled job is counted and its
// handler wall time recorded, regardless of outcome.
func Instrumented(taskType string, next JobHandler, recorder JobRecorder) JobHandler {
	if recorder == nil {
		return next
	}
	return &instrumentedHandler{taskType: taskType, next: next, recorder: recorder}
}

func (h *instrumentedHandler) Handle(client worker.JobClient, job entities.Job) {
	ctx := context.Background()
	h.recorder.RecordJobReceived(ctx, h.taskType)
	start := time.Now()
	h.next.Handle(client, job)
	h.recorder.RecordHandlerDuration(ctx, h.taskType, time.Since(start))
}

type CamundaWorker struct {
	client   zbc.Client
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *CamundaWorker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	return &CamundaWorker{
		client:   client,
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", map[string]interface{}{"taskType": w.taskType})
}

func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
}
