package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// noopProvider implements Provider with no-op operations.
// Used when both tracing and metrics are disabled, so the transport records nothing.
type noopProvider struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// newNoopProvider creates a new no-op provider.
// It also backs the signal a partially enabled provider leaves off.
func newNoopProvider() *noopProvider {
	return &noopProvider{
		tracerProvider: noop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
}

// TracerProvider returns a no-op tracer provider.
func (n *noopProvider) TracerProvider() trace.TracerProvider {
	return n.tracerProvider
}

// MeterProvider returns a no-op meter provider.
func (n *noopProvider) MeterProvider() metric.MeterProvider {
	return n.meterProvider
}

// Shutdown is a no-op for the no-op provider.
// Always returns nil since no exporter was started.
func (n *noopProvider) Shutdown(_ context.Context) error {
	return nil
}

// ForceFlush is a no-op for the no-op provider.
// Always returns nil since nothing is buffered.
func (n *noopProvider) ForceFlush(_ context.Context) error {
	return nil
}
