package httpclient

import (
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/gaborage/sheetsdk/config"
	"github.com/gaborage/sheetsdk/logger"
)

// NewFromConfig builds a Client from loaded configuration. Disabled tracing or
// metrics use no-op providers instead of the otel globals.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Client, error) {
	b, err := NewBuilderFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// NewBuilderFromConfig returns a Builder preset from cfg, for callers that
// adjust settings such as the retry policy before building.
func NewBuilderFromConfig(cfg *config.Config, log logger.Logger) (*Builder, error) {
	if cfg == nil {
		return nil, NewInvalidArgumentError("config", "a configuration is required")
	}

	b := NewBuilder(log).
		WithTimeout(cfg.HTTP.Timeout).
		WithRetryPolicy(PolicyFromConfig(cfg.HTTP.Retry)).
		WithUserAgent(cfg.App.Name, cfg.App.Version).
		WithMaxPayloadLogBytes(cfg.HTTP.MaxPayloadLogBytes).
		WithRequestInterceptor(NewTraceIDInterceptor())

	if cfg.HTTP.RateLimit.RPS > 0 {
		burst := cfg.HTTP.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		b.WithRateLimiter(rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit.RPS), burst))
	}
	if !cfg.Observability.Tracing {
		b.WithTracerProvider(tracenoop.NewTracerProvider())
	}
	if !cfg.Observability.Metrics {
		b.WithMeterProvider(metricnoop.NewMeterProvider())
	}

	return b, nil
}
