// internal/common/observability/metrics.go
package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the otel meter provider, bridged to the same
// prometheus registry the /metrics endpoint serves. Handler-level outcome
// counters live in internal/common/metrics; this layer times the job
// dispatch path itself.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobsReceived  otelmetric.Int64Counter
	handlerTime   otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobsReceived, _ := meter.Int64Counter(
		"worker.jobs.received",
		otelmetric.WithDescription("Jobs polled from the broker, per task type"),
	)

	handlerTime, _ := meter.Float64Histogram(
		"worker.handler.duration",
		otelmetric.WithDescription("Wall time spent inside a job handler"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		jobsReceived:  jobsReceived,
		handlerTime:   handlerTime,
	}
}

func (o *Observability) RecordJobReceived(ctx context.Context, taskType string) {
	if o.jobsReceived != nil {
		o.jobsReceived.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
		))
	}
}

func (o *Observability) RecordHandlerDuration(ctx context.Context, taskType string, duration time.Duration) {
	if o.handlerTime != nil {
		o.handlerTime.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
