// Package observability wires OpenTelemetry tracing and metrics into the
// index management layer. Model computation is pure in-memory work and is
// deliberately left uninstrumented.
package observability

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName   = "mongomap"
	instrumentationScope = "github.com/nlstn/go-mongomap"
)

// Config holds the initialized observability state: the tracer and the
// instruments used around index management operations.
type Config struct {
	serviceName    string
	serviceVersion string
	logger         *slog.Logger

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	tracer trace.Tracer

	// Instruments for index management.
	IndexCreates   metric.Int64Counter
	IndexDrops     metric.Int64Counter
	IndexWaits     metric.Int64Histogram
	IndexDriftSeen metric.Int64Counter

	tracingEnabled bool
	metricsEnabled bool
}

// Option configures a Config.
type Option func(*Config)

// WithTracerProvider sets the OpenTelemetry tracer provider. Without it
// the global provider is used and tracing stays effectively disabled
// unless the application installed one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.tracerProvider = tp
		c.tracingEnabled = true
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) {
		c.meterProvider = mp
		c.metricsEnabled = true
	}
}

// WithServiceName overrides the service name attached to spans.
func WithServiceName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.serviceName = name
		}
	}
}

// WithServiceVersion attaches a service version to spans.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.serviceVersion = version
	}
}

// WithLogger sets the logger used for observability-related diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConfig builds the observability configuration and initializes the
// tracer and instruments.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		serviceName: defaultServiceName,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	c.tracer = c.tracerProvider.Tracer(instrumentationScope)

	if c.meterProvider == nil {
		c.meterProvider = otel.GetMeterProvider()
	}
	meter := c.meterProvider.Meter(instrumentationScope)

	var err error
	if c.IndexCreates, err = meter.Int64Counter("mongomap.index.creates",
		metric.WithDescription("Number of index create operations issued")); err != nil {
		return nil, fmt.Errorf("failed to create index create counter: %w", err)
	}
	if c.IndexDrops, err = meter.Int64Counter("mongomap.index.drops",
		metric.WithDescription("Number of index drop operations issued")); err != nil {
		return nil, fmt.Errorf("failed to create index drop counter: %w", err)
	}
	if c.IndexWaits, err = meter.Int64Histogram("mongomap.index.wait_ms",
		metric.WithDescription("Time spent waiting for indexes to become queryable"),
		metric.WithUnit("ms")); err != nil {
		return nil, fmt.Errorf("failed to create index wait histogram: %w", err)
	}
	if c.IndexDriftSeen, err = meter.Int64Counter("mongomap.index.drift",
		metric.WithDescription("Number of index definitions found drifted from the model")); err != nil {
		return nil, fmt.Errorf("failed to create index drift counter: %w", err)
	}

	return c, nil
}

// Tracer returns the tracer used for index management spans.
func (c *Config) Tracer() trace.Tracer {
	return c.tracer
}

// Logger returns the configured logger.
func (c *Config) Logger() *slog.Logger {
	return c.logger
}

// ServiceName returns the configured service name.
func (c *Config) ServiceName() string {
	return c.serviceName
}

// ServiceVersion returns the configured service version, possibly empty.
func (c *Config) ServiceVersion() string {
	return c.serviceVersion
}

// TracingEnabled reports whether a tracer provider was explicitly set.
func (c *Config) TracingEnabled() bool {
	return c.tracingEnabled
}

// MetricsEnabled reports whether a meter provider was explicitly set.
func (c *Config) MetricsEnabled() bool {
	return c.metricsEnabled
}
