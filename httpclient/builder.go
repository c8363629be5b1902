package httpclient

import (
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/sheetsdk/logger"
)

// DefaultTimeout bounds each attempt when the builder creates the transport
const DefaultTimeout = 30 * time.Second

// Builder provides a fluent interface for configuring a Client
type Builder struct {
	transport Doer
	timeout   time.Duration
	policy    RetryPolicy
	opts      []Option
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	b := &Builder{timeout: DefaultTimeout}
	if log != nil {
		b.opts = append(b.opts, WithLogger(log))
	}
	return b
}

// WithTransport sets the transport. When unset Build creates an *http.Client.
func (b *Builder) WithTransport(transport Doer) *Builder {
	b.transport = transport
	return b
}

// WithTimeout sets the per-attempt timeout of the default transport
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithRetryPolicy sets the retry policy
func (b *Builder) WithRetryPolicy(policy RetryPolicy) *Builder {
	b.policy = policy
	return b
}

// WithUserAgent sets the application name and version
func (b *Builder) WithUserAgent(name, version string) *Builder {
	b.opts = append(b.opts, WithUserAgent(name, version))
	return b
}

// WithMaxPayloadLogBytes caps logged body bytes
func (b *Builder) WithMaxPayloadLogBytes(n int) *Builder {
	b.opts = append(b.opts, WithMaxPayloadLogBytes(n))
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.opts = append(b.opts, WithRequestInterceptor(interceptor))
	return b
}

// WithRateLimiter paces attempts
func (b *Builder) WithRateLimiter(limiter *rate.Limiter) *Builder {
	b.opts = append(b.opts, WithRateLimiter(limiter))
	return b
}

// WithTracerProvider sets the tracer provider
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.opts = append(b.opts, WithTracerProvider(tp))
	return b
}

// WithMeterProvider sets the meter provider
func (b *Builder) WithMeterProvider(mp metric.MeterProvider) *Builder {
	b.opts = append(b.opts, WithMeterProvider(mp))
	return b
}

// WithPropagator sets the trace context propagator
func (b *Builder) WithPropagator(p propagation.TextMapPropagator) *Builder {
	b.opts = append(b.opts, WithPropagator(p))
	return b
}

// Build creates the Client
func (b *Builder) Build() (*Client, error) {
	transport := b.transport
	if transport == nil {
		timeout := b.timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		transport = &nethttp.Client{Timeout: timeout}
	}
	return New(transport, b.policy, b.opts...)
}
