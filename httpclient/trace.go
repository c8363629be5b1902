package httpclient

import (
	"context"
	nethttp "net/http"

	"github.com/google/uuid"
)

// HeaderXRequestID is the standard header name for request tracing
const HeaderXRequestID = "X-Request-ID"

type contextKey string

const traceIDKey contextKey = "trace_id"

// WithTraceID adds a trace ID to the context. Every attempt of a call shares it.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext returns a trace ID from context if present
func TraceIDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := TraceIDFromContext(ctx); ok {
		return traceID
	}
	return uuid.NewString()
}

// NewTraceIDInterceptor creates a request interceptor that adds the X-Request-ID header
func NewTraceIDInterceptor() RequestInterceptor {
	return NewTraceIDInterceptorFor(HeaderXRequestID)
}

// NewTraceIDInterceptorFor creates an interceptor that uses a custom header name.
// A header already set on the request, for example by the descriptor, is kept.
func NewTraceIDInterceptorFor(header string) RequestInterceptor {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *nethttp.Request) error {
		if req.Header.Get(header) == "" {
			req.Header.Set(header, EnsureTraceID(ctx))
		}
		return nil
	}
}
