package httpclient

import (
	"context"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/gaborage/sheetsdk/httpclient"

	metricAttempts = "sheetsdk.http.client.attempts"
	metricDuration = "sheetsdk.http.client.duration"

	spanName = "sheetsdk.http.attempt"
)

// Attribute keys shared by spans and metrics.
const (
	attrMethod  = attribute.Key("http.request.method")
	attrURL     = attribute.Key("url.full")
	attrStatus  = attribute.Key("http.response.status_code")
	attrAttempt = attribute.Key("sheetsdk.attempt")
	attrOutcome = attribute.Key("sheetsdk.outcome")
)

type telemetry struct {
	tracer   trace.Tracer
	attempts metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	meter := mp.Meter(instrumentationName)

	attempts, err := meter.Int64Counter(metricAttempts,
		metric.WithDescription("Number of HTTP attempts sent by the REST client"),
		metric.WithUnit("{attempt}"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(metricDuration,
		metric.WithDescription("Duration of HTTP attempts sent by the REST client"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &telemetry{
		tracer:   tp.Tracer(instrumentationName),
		attempts: attempts,
		duration: duration,
	}, nil
}

// start opens a client span for one attempt.
func (t *telemetry) start(ctx context.Context, wire *nethttp.Request, attempt int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attrMethod.String(wire.Method),
			attrURL.String(wire.URL.Redacted()),
			attrAttempt.Int(attempt),
		))
}

// finish records the attempt outcome on the span and the instruments. status is 0
// when no response was received.
func (t *telemetry) finish(ctx context.Context, span trace.Span, method string, status int, elapsed time.Duration, err error) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case status >= 400:
		outcome = "failure"
		span.SetStatus(codes.Error, nethttp.StatusText(status))
	case !IsSuccessStatus(status):
		outcome = "failure"
	}
	if status > 0 {
		span.SetAttributes(attrStatus.Int(status))
	}

	attrs := metric.WithAttributes(
		attrMethod.String(method),
		attrStatus.Int(status),
		attrOutcome.String(outcome),
	)
	t.attempts.Add(ctx, 1, attrs)
	t.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
}
