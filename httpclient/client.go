package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	nethttp "net/http"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/sheetsdk/logger"
)

const (
	headerUserAgent   = "User-Agent"
	headerAccept      = "Accept"
	headerContentType = "Content-Type"

	contentTypeJSON = "application/json"

	defaultMaxPayloadLogBytes = 1024
)

var wireMethods = map[Method]string{
	MethodGet:    nethttp.MethodGet,
	MethodPost:   nethttp.MethodPost,
	MethodPut:    nethttp.MethodPut,
	MethodDelete: nethttp.MethodDelete,
}

// Client is the transport wrapper. Every field is set at construction and never
// changes, so a Client is safe for concurrent use without locking; the attempt
// counter and timer of a call live on that call's stack.
type Client struct {
	transport          Doer
	policy             RetryPolicy
	logger             logger.Logger
	userAgent          string
	maxPayloadLogBytes int
	interceptors       []RequestInterceptor
	limiter            *rate.Limiter
	telemetry          *telemetry
	propagator         propagation.TextMapPropagator
	now                func() time.Time
}

var _ Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*options)

type options struct {
	logger             logger.Logger
	appName            string
	appVersion         string
	maxPayloadLogBytes int
	interceptors       []RequestInterceptor
	limiter            *rate.Limiter
	tracerProvider     trace.TracerProvider
	meterProvider      metric.MeterProvider
	propagator         propagation.TextMapPropagator
	now                func() time.Time
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log logger.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithUserAgent sets the application name and version embedded in the User-Agent header.
func WithUserAgent(name, version string) Option {
	return func(o *options) {
		o.appName = name
		o.appVersion = version
	}
}

// WithMaxPayloadLogBytes caps the number of body bytes written to debug logs.
func WithMaxPayloadLogBytes(n int) Option {
	return func(o *options) { o.maxPayloadLogBytes = n }
}

// WithRequestInterceptor appends an interceptor run on every attempt.
func WithRequestInterceptor(interceptor RequestInterceptor) Option {
	return func(o *options) {
		if interceptor != nil {
			o.interceptors = append(o.interceptors, interceptor)
		}
	}
}

// WithRateLimiter paces attempts; the client waits for a token before each send.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(o *options) { o.limiter = limiter }
}

// WithTracerProvider sets the provider for per-attempt client spans (default: otel global).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the provider for attempt metrics (default: otel global).
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithPropagator sets the propagator injecting trace context into request headers
// (default: otel global).
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(o *options) { o.propagator = p }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a Client sending through transport. A nil policy never retries.
// A nil transport fails with an InvalidArgument error.
func New(transport Doer, policy RetryPolicy, opts ...Option) (*Client, error) {
	if transport == nil {
		return nil, NewInvalidArgumentError("transport", "an http transport is required")
	}
	if policy == nil {
		policy = NeverRetry
	}

	o := options{
		maxPayloadLogBytes: defaultMaxPayloadLogBytes,
		now:                time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Nop()
	}
	if o.maxPayloadLogBytes <= 0 {
		o.maxPayloadLogBytes = defaultMaxPayloadLogBytes
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}
	if o.propagator == nil {
		o.propagator = otel.GetTextMapPropagator()
	}

	tel, err := newTelemetry(o.tracerProvider, o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry instruments: %w", err)
	}

	return &Client{
		transport:          transport,
		policy:             policy,
		logger:             o.logger,
		userAgent:          buildUserAgent(o.appName, o.appVersion),
		maxPayloadLogBytes: o.maxPayloadLogBytes,
		interceptors:       o.interceptors,
		limiter:            o.limiter,
		telemetry:          tel,
		propagator:         o.propagator,
		now:                o.now,
	}, nil
}

// UserAgent returns the User-Agent value attached to every request.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Request sends req, re-sending the same descriptor while the response is not 2xx and
// the retry policy agrees. The last response is returned without an error whatever its
// status; transport failures are returned as errors and never retried.
// Termination depends on the policy: one that always returns true retries forever.
func (c *Client) Request(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	ctx = WithTraceID(ctx, EnsureTraceID(ctx))

	start := c.now()
	for attempt := 1; ; attempt++ {
		wire, body, err := c.buildRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err := c.send(ctx, wire, body, attempt, start)
		if err != nil {
			return nil, err
		}

		if IsSuccessStatus(resp.StatusCode) {
			return resp, nil
		}
		if !c.policy(attempt, resp.Stats.TotalElapsed, resp) {
			return resp, nil
		}
	}
}

// Close flushes buffered log output. The transport manages its own connections,
// so nothing is torn down.
func (c *Client) Close() error {
	if f, ok := c.logger.(logger.Flusher); ok {
		return f.Flush()
	}
	return nil
}

// ReleaseConnection does nothing: net/http returns connections to its pool once
// the response body is closed, which the client does after every attempt.
func (c *Client) ReleaseConnection() {}

func validateRequest(req *Request) error {
	if req == nil {
		return NewInvalidArgumentError("request", "a request is required")
	}
	if req.URL == "" {
		return NewInvalidArgumentError("url", "a request URI is required")
	}
	return nil
}

// buildRequest maps the descriptor onto a wire request and returns the body it carries.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*nethttp.Request, []byte, error) {
	method, ok := wireMethods[req.Method]
	if !ok {
		return nil, nil, NewUnsupportedOperationError(req.Method)
	}

	var body []byte
	if req.Entity != nil && req.Entity.Content != nil {
		body = req.Entity.Content
	}

	wire, err := nethttp.NewRequestWithContext(ctx, method, req.URL, nethttp.NoBody)
	if err != nil {
		return nil, nil, NewInvalidArgumentError("url", err.Error())
	}
	wire.Header.Set(headerUserAgent, c.userAgent)

	if body != nil {
		wire.Header.Set(headerAccept, contentTypeJSON)
		wire.Header.Set(headerContentType, contentTypeJSON+"; charset=utf-8")
		setBody(wire, body)
	}

	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		wire.Header.Set(k, req.Headers[k])
	}

	for _, interceptor := range c.interceptors {
		if err := interceptor(ctx, wire); err != nil {
			return nil, nil, NewInterceptorError("request interceptor failed", "request", err)
		}
	}

	return wire, body, nil
}

func setBody(wire *nethttp.Request, body []byte) {
	wire.Body = io.NopCloser(bytes.NewReader(body))
	wire.ContentLength = int64(len(body))
	wire.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
}

// injectTraceContext adds the propagator's headers that the request does not
// already carry; descriptor headers are sent as given.
func (c *Client) injectTraceContext(ctx context.Context, header nethttp.Header) {
	injected := propagation.HeaderCarrier(nethttp.Header{})
	c.propagator.Inject(ctx, injected)
	for _, key := range injected.Keys() {
		if header.Get(key) == "" {
			header.Set(key, injected.Get(key))
		}
	}
}

// send performs one attempt: wait for the limiter, send, read the body, log.
func (c *Client) send(ctx context.Context, wire *nethttp.Request, body []byte, attempt int, start time.Time) (*Response, error) {
	ctx, span := c.telemetry.start(ctx, wire, attempt)
	defer span.End()
	wire = wire.WithContext(ctx)
	c.injectTraceContext(ctx, wire.Header)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			terr := NewTransportError("rate limiter wait aborted", err)
			c.telemetry.finish(ctx, span, wire.Method, 0, 0, terr)
			return nil, terr
		}
	}

	attemptStart := c.now()
	raw, err := c.transport.Do(wire)
	if err != nil {
		elapsed := c.now().Sub(attemptStart)
		terr := NewTransportError(fmt.Sprintf("%s %s", wire.Method, wire.URL.Redacted()), err)
		c.logFailure(ctx, wire, elapsed, attempt, terr)
		c.telemetry.finish(ctx, span, wire.Method, 0, elapsed, terr)
		return nil, terr
	}
	defer raw.Body.Close()

	payload, err := io.ReadAll(raw.Body)
	elapsed := c.now().Sub(attemptStart)
	if err != nil {
		terr := NewTransportError("failed to read response body", err)
		c.logFailure(ctx, wire, elapsed, attempt, terr)
		c.telemetry.finish(ctx, span, wire.Method, raw.StatusCode, elapsed, terr)
		return nil, terr
	}

	resp := newResponse(raw, payload, Stats{
		Attempt:      attempt,
		ElapsedTime:  elapsed,
		TotalElapsed: c.now().Sub(start),
	})

	c.logExchange(ctx, wire, body, resp)
	c.telemetry.finish(ctx, span, wire.Method, resp.StatusCode, elapsed, nil)

	return resp, nil
}

func newResponse(raw *nethttp.Response, payload []byte, stats Stats) *Response {
	resp := &Response{
		StatusCode: raw.StatusCode,
		Headers:    joinHeaders(raw.Header),
		Stats:      stats,
	}

	contentType := raw.Header.Get(headerContentType)
	if len(payload) > 0 || contentType != "" {
		resp.Entity = &Entity{
			ContentType:   mediaType(contentType),
			ContentLength: int64(len(payload)),
			Content:       payload,
		}
	}

	return resp
}

func joinHeaders(h nethttp.Header) map[string]string {
	joined := make(map[string]string, len(h))
	for k, v := range h {
		joined[k] = strings.Join(v, ",")
	}
	return joined
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}
