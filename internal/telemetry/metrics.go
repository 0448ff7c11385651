// Package telemetry provides OpenTelemetry instrumentation for the content sync server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// QueueMetricsMeterName is the name used for the job queue metrics meter
	QueueMetricsMeterName = "github.com/stacklok/content-sync-server/queue"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/content-sync-server/sync"
)

// QueueMetrics holds the OpenTelemetry instruments for the job queue
type QueueMetrics struct {
	jobsTotal metric.Int64Gauge
}

// NewQueueMetrics creates a new QueueMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewQueueMetrics(provider metric.MeterProvider) (*QueueMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(QueueMetricsMeterName)

	jobsTotal, err := meter.Int64Gauge(
		"content_sync_jobs_total",
		metric.WithDescription("Number of sync jobs in each status"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &QueueMetrics{
		jobsTotal: jobsTotal,
	}, nil
}

// RecordJobsTotal records the current number of jobs in a status
func (m *QueueMetrics) RecordJobsTotal(ctx context.Context, status string, count int64) {
	if m == nil || m.jobsTotal == nil {
		return
	}

	m.jobsTotal.Record(ctx, count, metric.WithAttributes(attribute.String("status", status)))
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration   metric.Float64Histogram
	jobOutcomes    metric.Int64Counter
	remoteDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"content_sync_duration_seconds",
		metric.WithDescription("Duration of sync operations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	jobOutcomes, err := meter.Int64Counter(
		"content_sync_job_outcomes_total",
		metric.WithDescription("Number of finished sync and delete jobs by outcome"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	remoteDuration, err := meter.Float64Histogram(
		"content_sync_remote_call_duration_seconds",
		metric.WithDescription("Duration of calls to the publishing targets in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration:   syncDuration,
		jobOutcomes:    jobOutcomes,
		remoteDuration: remoteDuration,
	}, nil
}

// RecordSyncDuration records the duration of one orchestrator run
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, strategy string, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("strategy", strategy),
		attribute.Bool("success", success),
	}

	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordJobOutcome counts a finished job. operation is "sync" or "delete",
// status is the job status the job ended in.
func (m *SyncMetrics) RecordJobOutcome(ctx context.Context, operation, status, errorKind string) {
	if m == nil || m.jobOutcomes == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", status),
	}
	if errorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", errorKind))
	}

	m.jobOutcomes.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRemoteCall records the duration of a call to a publishing target
func (m *SyncMetrics) RecordRemoteCall(ctx context.Context, target, operation string, duration time.Duration, success bool) {
	if m == nil || m.remoteDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("target", target),
		attribute.String("operation", operation),
		attribute.Bool("success", success),
	}

	m.remoteDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
