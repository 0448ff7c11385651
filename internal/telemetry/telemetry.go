package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of the process
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler

	shutdownOnce sync.Once
	shutdowns    []func(context.Context) error
	shutdownErr  error
}

// Option configures New
type Option func(*options)

type options struct {
	config       *Config
	spanExporter sdktrace.SpanExporter
	metricReader sdkmetric.Reader
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithSpanExporter replaces the OTLP span exporter
func WithSpanExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.spanExporter = exporter
	}
}

// WithMetricReader replaces the periodic OTLP metric reader
func WithMetricReader(reader sdkmetric.Reader) Option {
	return func(o *options) {
		o.metricReader = reader
	}
}

// New builds the providers the configuration enables; everything else gets a
// no-op provider. Enabled providers are also installed as the otel globals.
// The caller must call Shutdown to flush pending data.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.config

	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
	if cfg == nil || !cfg.Enabled {
		slog.Debug("Telemetry disabled")
		return t, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.TracingEnabled() {
		exporter := o.spanExporter
		if exporter == nil {
			if exporter, err = newSpanExporter(ctx, cfg); err != nil {
				return nil, err
			}
		}
		tp := newTracerProvider(res, exporter, cfg.Tracing.GetSampling())
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		slog.Info("Tracing enabled",
			"endpoint", cfg.GetEndpoint(),
			"sampling_ratio", cfg.Tracing.GetSampling())
	}

	if cfg.MetricsEnabled() {
		reader := o.metricReader
		switch {
		case reader != nil:
		case cfg.Metrics.GetExporter() == ExporterPrometheus:
			if reader, t.metricsHandler, err = newPrometheusReader(); err != nil {
				_ = t.Shutdown(ctx)
				return nil, err
			}
		default:
			if reader, err = newMetricReader(ctx, cfg); err != nil {
				_ = t.Shutdown(ctx)
				return nil, err
			}
		}
		mp := newMeterProvider(res, reader)
		t.meterProvider = mp
		t.shutdowns = append(t.shutdowns, mp.Shutdown)

		otel.SetMeterProvider(mp)
		slog.Info("Metrics enabled", "exporter", cfg.Metrics.GetExporter())
	}

	if cfg.Insecure && len(t.shutdowns) > 0 {
		slog.Warn("Telemetry is exported over unencrypted HTTP")
	}
	return t, nil
}

// TracerProvider returns the tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler serves the prometheus scrape endpoint. It is nil unless the
// prometheus exporter is configured.
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// Shutdown flushes and stops the providers. Later calls return the result
// of the first one.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		var errs []error
		for _, shutdown := range t.shutdowns {
			if err := shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		t.shutdownErr = errors.Join(errs...)
		if t.shutdownErr != nil {
			t.shutdownErr = fmt.Errorf("failed to shutdown telemetry: %w", t.shutdownErr)
		}
	})
	return t.shutdownErr
}
