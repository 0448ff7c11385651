// Package telemetry provides OpenTelemetry instrumentation for the content sync server.
package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultServiceName is reported when the configuration names no service
	DefaultServiceName = "content-sync-api"

	// DefaultEndpoint is the OTLP/HTTP collector address
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling samples 5% of traces
	DefaultSampling = 0.05

	// DefaultMetricsInterval is how often metrics are pushed to the collector
	DefaultMetricsInterval = 60 * time.Second

	// ExporterOTLP pushes metrics to the collector
	ExporterOTLP = "otlp"

	// ExporterPrometheus serves metrics for scraping on /metrics
	ExporterPrometheus = "prometheus"
)

// Config is the telemetry section of the server configuration
type Config struct {
	// Enabled turns telemetry on. When false the server uses no-op providers.
	Enabled bool `yaml:"enabled"`

	// ServiceName is the service.name resource attribute
	ServiceName string `yaml:"serviceName,omitempty"`

	// Endpoint is the OTLP/HTTP collector as "host:port"
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends telemetry over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are added to every export request, e.g. collector credentials
	Headers map[string]string `yaml:"headers,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls span export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of sampled root spans, in (0, 1]. Zero means DefaultSampling.
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Exporter is "otlp" (default) or "prometheus"
	Exporter string `yaml:"exporter,omitempty"`

	// Interval between pushes (e.g. "30s"). Defaults to one minute. Ignored
	// by the prometheus exporter.
	Interval string `yaml:"interval,omitempty"`
}

// GetServiceName returns the service name
func (c *Config) GetServiceName() string {
	if c == nil || c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetEndpoint returns the collector address
func (c *Config) GetEndpoint() string {
	if c == nil || c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

// TracingEnabled reports whether spans are exported
func (c *Config) TracingEnabled() bool {
	return c != nil && c.Enabled && c.Tracing != nil && c.Tracing.Enabled
}

// MetricsEnabled reports whether metrics are exported
func (c *Config) MetricsEnabled() bool {
	return c != nil && c.Enabled && c.Metrics != nil && c.Metrics.Enabled
}

// GetSampling returns the sampling ratio
func (c *TracingConfig) GetSampling() float64 {
	if c == nil || c.Sampling == 0 {
		return DefaultSampling
	}
	return c.Sampling
}

// GetExporter returns the metric exporter name
func (c *MetricsConfig) GetExporter() string {
	if c == nil || c.Exporter == "" {
		return ExporterOTLP
	}
	return c.Exporter
}

// GetInterval returns the export interval
func (c *MetricsConfig) GetInterval() time.Duration {
	if c == nil {
		return DefaultMetricsInterval
	}
	if d, err := time.ParseDuration(c.Interval); err == nil && d > 0 {
		return d
	}
	return DefaultMetricsInterval
}

// Validate checks the configuration. A nil or disabled configuration is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if strings.Contains(c.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("telemetry.endpoint: expected host:port, got %q", c.Endpoint))
	}
	for name := range c.Headers {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("telemetry.headers: header names cannot be empty"))
			break
		}
	}
	if c.Tracing != nil && c.Tracing.Enabled {
		if s := c.Tracing.Sampling; s < 0 || s > 1 {
			errs = append(errs, fmt.Errorf("telemetry.tracing.sampling: must be between 0.0 and 1.0, got %g", s))
		}
	}
	if c.Metrics != nil && c.Metrics.Enabled {
		if e := c.Metrics.GetExporter(); e != ExporterOTLP && e != ExporterPrometheus {
			errs = append(errs, fmt.Errorf("telemetry.metrics.exporter: unknown exporter %q", e))
		}
	}
	if c.Metrics != nil && c.Metrics.Enabled && c.Metrics.Interval != "" {
		d, err := time.ParseDuration(c.Metrics.Interval)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("telemetry.metrics.interval: %w", err))
		case d <= 0:
			errs = append(errs, errors.New("telemetry.metrics.interval: must be positive"))
		}
	}
	return errors.Join(errs...)
}
