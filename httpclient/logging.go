package httpclient

import (
	"context"
	nethttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gaborage/sheetsdk/logger"
)

const (
	// RedactedValue replaces credential header values in log output
	RedactedValue = logger.DefaultMaskValue

	logMsgCompleted = "REST client request completed"
	logMsgFailed    = "REST client request failed"
	logMsgRequest   = "REST client request"
	logMsgResponse  = "REST client response"
)

// redactedHeaders are masked wherever headers are logged, in either direction.
var redactedHeaders = []string{"Authorization", "Proxy-Authorization"}

// logExchange writes one info line per attempt and debug entries for both payloads.
func (c *Client) logExchange(ctx context.Context, wire *nethttp.Request, reqBody []byte, resp *Response) {
	requestID, _ := TraceIDFromContext(ctx)

	c.logger.Info().
		Str("method", wire.Method).
		Str("url", wire.URL.Redacted()).
		Int("status", resp.StatusCode).
		Int64("elapsed_ms", resp.Stats.ElapsedTime.Milliseconds()).
		Int("attempt", resp.Stats.Attempt).
		Str("request_id", requestID).
		Msg(logMsgCompleted)

	c.logPayload(c.logger.Debug().
		Str("direction", "outbound").
		Str("method", wire.Method).
		Str("url", wire.URL.Redacted()).
		Str("request_id", requestID).
		Interface("headers", redactHeaders(joinHeaders(wire.Header))), reqBody, logMsgRequest)

	var respBody []byte
	if resp.Entity != nil {
		respBody = resp.Entity.Content
	}
	c.logPayload(c.logger.Debug().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Interface("headers", redactHeaders(resp.Headers)), respBody, logMsgResponse)
}

func (c *Client) logFailure(ctx context.Context, wire *nethttp.Request, elapsed time.Duration, attempt int, err error) {
	requestID, _ := TraceIDFromContext(ctx)

	c.logger.Error().
		Err(err).
		Str("method", wire.Method).
		Str("url", wire.URL.Redacted()).
		Int64("elapsed_ms", elapsed.Milliseconds()).
		Int("attempt", attempt).
		Str("request_id", requestID).
		Msg(logMsgFailed)
}

func (c *Client) logPayload(event logger.LogEvent, body []byte, msg string) {
	preview, truncated := truncate(body, c.maxPayloadLogBytes)
	event.
		Int("body_size", len(body)).
		Str("body_truncated", strconv.FormatBool(truncated)).
		Bytes("body_preview", preview).
		Msg(msg)
}

func truncate(body []byte, limit int) ([]byte, bool) {
	if limit <= 0 {
		limit = defaultMaxPayloadLogBytes
	}
	if len(body) > limit {
		return body[:limit], true
	}
	return body, false
}

// redactHeaders returns a copy of headers with credential values replaced by RedactedValue.
func redactHeaders(headers map[string]string) map[string]string {
	redacted := make(map[string]string, len(headers))
	for k, v := range headers {
		if isRedactedHeader(k) {
			v = RedactedValue
		}
		redacted[k] = v
	}
	return redacted
}

func isRedactedHeader(name string) bool {
	for _, h := range redactedHeaders {
		if strings.EqualFold(name, h) {
			return true
		}
	}
	return false
}
