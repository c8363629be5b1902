// Package httpclient is the transport used by the SDK resource clients. It turns a
// request descriptor into a wire HTTP call, retries non-success responses while a
// caller-supplied policy allows it, and logs every attempt with credentials redacted.
package httpclient

import (
	"context"
	nethttp "net/http"
	"time"
)

// Method is the request method of a descriptor.
type Method string

// Supported methods. Any other value fails with an UnsupportedOperation error.
const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Request describes a call independently of net/http. The client never mutates it,
// so the same descriptor is re-sent on every retry.
type Request struct {
	Method  Method
	URL     string
	Headers map[string]string
	// Entity is sent as a JSON payload when its Content is non-nil
	Entity *Entity
}

// Entity is a request or response body.
type Entity struct {
	ContentType   string
	ContentLength int64
	Content       []byte
}

// Response is the result of the final attempt. Non-success statuses are returned
// as responses, not errors.
type Response struct {
	StatusCode int
	// Headers holds every response header with multiple values joined by ","
	Headers map[string]string
	Entity  *Entity
	Stats   Stats
}

// Stats contains request execution statistics
type Stats struct {
	// Attempt is the 1-based number of the attempt that produced the response
	Attempt int
	// ElapsedTime covers the send and body read of this attempt
	ElapsedTime time.Duration
	// TotalElapsed is measured from the start of the first attempt
	TotalElapsed time.Duration
}

// Doer sends wire requests. *http.Client satisfies it; it must be safe for concurrent use.
type Doer interface {
	Do(req *nethttp.Request) (*nethttp.Response, error)
}

// RetryPolicy decides whether a non-success response is retried. attempts counts the
// attempts made so far (starting at 1) and elapsed is measured from the first attempt.
// Policies must be pure: the client owns the counter and the timer.
type RetryPolicy func(attempts int, elapsed time.Duration, resp *Response) bool

// RequestInterceptor is called on every wire request before it is sent
type RequestInterceptor func(ctx context.Context, req *nethttp.Request) error

// Transport is the request surface consumed by resource clients.
type Transport interface {
	Request(ctx context.Context, req *Request) (*Response, error)
	RequestWithFile(ctx context.Context, req *Request, objectType, filePath, fileType string) (*Response, error)
}
