package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/gaborage/sheetsdk/config"
)

// OTLP protocols accepted in configuration.
const (
	ProtocolHTTP = "http"
	ProtocolGRPC = "grpc"
)

// createTraceExporter returns a stdout exporter when no endpoint is configured,
// otherwise an OTLP exporter for the configured protocol.
func createTraceExporter(ctx context.Context, cfg config.ObservabilityConfig, out io.Writer) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		return stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	}

	switch protocolOf(cfg) {
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("trace protocol '%s': %w", cfg.Protocol, ErrInvalidProtocol)
	}
}

// createMetricExporter mirrors createTraceExporter for metrics.
func createMetricExporter(ctx context.Context, cfg config.ObservabilityConfig, out io.Writer) (sdkmetric.Exporter, error) {
	if cfg.Endpoint == "" {
		return stdoutmetric.New(stdoutmetric.WithWriter(out), stdoutmetric.WithPrettyPrint())
	}

	switch protocolOf(cfg) {
	case ProtocolHTTP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	case ProtocolGRPC:
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("metrics protocol '%s': %w", cfg.Protocol, ErrInvalidProtocol)
	}
}

func protocolOf(cfg config.ObservabilityConfig) string {
	if cfg.Protocol == "" {
		return ProtocolHTTP
	}
	return cfg.Protocol
}
