// Package observability installs OpenTelemetry tracer and meter providers for the
// transport. Without an endpoint the exporters print to a local writer; with one they
// send OTLP over HTTP or gRPC.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gaborage/sheetsdk/config"
)

// Provider is the interface for observability providers.
// It manages the lifecycle of tracing and metrics providers.
type Provider interface {
	// TracerProvider returns the configured trace provider.
	TracerProvider() trace.TracerProvider

	// MeterProvider returns the configured meter provider.
	MeterProvider() metric.MeterProvider

	// Shutdown flushes pending data and stops the exporters.
	Shutdown(ctx context.Context) error

	// ForceFlush immediately flushes any pending telemetry data.
	ForceFlush(ctx context.Context) error
}

// Option configures NewProvider.
type Option func(*options)

type options struct {
	output    io.Writer
	setGlobal bool
}

// WithOutput sets the writer the exporters print to (default: os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithoutGlobals leaves the otel global providers and propagator untouched.
func WithoutGlobals() Option {
	return func(o *options) { o.setGlobal = false }
}

// provider implements Provider with OpenTelemetry SDK.
type provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	fallback       *noopProvider
	mu             sync.Mutex
}

// NewProvider creates providers for the signals enabled in cfg.Observability.
// When nothing is enabled a no-op provider is returned.
func NewProvider(cfg *config.Config, opts ...Option) (Provider, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	o := options{output: os.Stdout, setGlobal: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Observability.Tracing && !cfg.Observability.Metrics {
		return newNoopProvider(), nil
	}

	res, err := createResource(cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	ctx := context.Background()
	p := &provider{fallback: newNoopProvider()}
	if cfg.Observability.Tracing {
		exporter, err := createTraceExporter(ctx, cfg.Observability, o.output)
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		// stdout output is for local runs, where spans should appear as they end
		var processor sdktrace.SpanProcessor
		if cfg.Observability.Endpoint == "" {
			processor = sdktrace.NewSimpleSpanProcessor(exporter)
		} else {
			processor = sdktrace.NewBatchSpanProcessor(exporter)
		}
		p.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSpanProcessor(processor),
		)
	}
	if cfg.Observability.Metrics {
		exporter, err := createMetricExporter(ctx, cfg.Observability, o.output)
		if err != nil {
			return nil, fmt.Errorf("failed to create metric exporter: %w", err)
		}
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		)
	}

	if o.setGlobal {
		otel.SetTracerProvider(p.TracerProvider())
		otel.SetMeterProvider(p.MeterProvider())
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}
	return p, nil
}

// createResource creates an OpenTelemetry resource with service information.
func createResource(app config.AppConfig) (*resource.Resource, error) {
	custom, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(app.Name),
			semconv.ServiceVersion(app.Version),
			semconv.DeploymentEnvironmentName(app.Env),
		),
	)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), custom)
}

// TracerProvider returns the SDK tracer provider, or a no-op one when tracing is disabled.
func (p *provider) TracerProvider() trace.TracerProvider {
	if p.tracerProvider == nil {
		return p.fallback.TracerProvider()
	}
	return p.tracerProvider
}

// MeterProvider returns the SDK meter provider, or a no-op one when metrics are disabled.
func (p *provider) MeterProvider() metric.MeterProvider {
	if p.meterProvider == nil {
		return p.fallback.MeterProvider()
	}
	return p.meterProvider
}

// Shutdown gracefully shuts down the provider.
func (p *provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// ForceFlush exports everything recorded so far.
func (p *provider) ForceFlush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("flush errors: %w", errors.Join(errs...))
	}
	return nil
}
