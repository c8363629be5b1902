package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/sheetsdk/logger"
)

func TestLogExchangeOneInfoLinePerAttempt(t *testing.T) {
	log := &fakeLogger{}
	doer := newScriptedDoer(nethttp.StatusInternalServerError, nethttp.StatusOK)
	c := newTestClient(t, doer, MaxAttempts(3), WithLogger(log))

	_, err := c.Request(context.Background(), getRequest())
	require.NoError(t, err)

	infos := log.byMessage(logMsgCompleted)
	require.Len(t, infos, 2)
	for i, e := range infos {
		assert.Equal(t, "info", e.level)
		assert.Equal(t, nethttp.MethodGet, e.fields["method"])
		assert.Equal(t, testURL, e.fields["url"])
		assert.Equal(t, i+1, e.fields["attempt"])
		assert.Contains(t, e.fields, "elapsed_ms")
		assert.NotEmpty(t, e.fields["request_id"])
	}
	assert.Equal(t, nethttp.StatusInternalServerError, infos[0].fields["status"])
	assert.Equal(t, nethttp.StatusOK, infos[1].fields["status"])
}

func TestLogExchangeRedactsAuthorization(t *testing.T) {
	log := &fakeLogger{}
	doer := newScriptedDoer(nethttp.StatusOK)
	doer.header = nethttp.Header{"Authorization": []string{"Bearer echoed"}}
	c := newTestClient(t, doer, NeverRetry, WithLogger(log))

	_, err := c.Request(context.Background(), &Request{
		Method:  MethodPost,
		URL:     testURL,
		Headers: map[string]string{"Authorization": testBearer, "Proxy-Authorization": "Basic abc"},
		Entity:  &Entity{Content: []byte(testJSONBody)},
	})
	require.NoError(t, err)

	// the wire request still carries the credential
	assert.Equal(t, testBearer, doer.last().header.Get("Authorization"))

	reqLogs := log.byMessage(logMsgRequest)
	require.Len(t, reqLogs, 1)
	headers, ok := reqLogs[0].fields["headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, RedactedValue, headers["Authorization"])
	assert.Equal(t, RedactedValue, headers["Proxy-Authorization"])
	assert.Equal(t, c.UserAgent(), headers["User-Agent"])
	assert.Equal(t, []byte(testJSONBody), reqLogs[0].fields["body_preview"])
	assert.Equal(t, "debug", reqLogs[0].level)

	respLogs := log.byMessage(logMsgResponse)
	require.Len(t, respLogs, 1)
	respHeaders, ok := respLogs[0].fields["headers"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, RedactedValue, respHeaders["Authorization"])
	assert.Equal(t, []byte(`{"result":"ok"}`), respLogs[0].fields["body_preview"])

	for _, e := range log.events {
		for _, v := range e.fields {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, "secret-token")
			}
		}
	}
}

func TestLogPayloadTruncation(t *testing.T) {
	log := &fakeLogger{}
	doer := newScriptedDoer(nethttp.StatusOK)
	doer.body = strings.Repeat("x", 64)
	c := newTestClient(t, doer, NeverRetry, WithLogger(log), WithMaxPayloadLogBytes(16))

	_, err := c.Request(context.Background(), getRequest())
	require.NoError(t, err)

	respLogs := log.byMessage(logMsgResponse)
	require.Len(t, respLogs, 1)
	assert.Equal(t, 64, respLogs[0].fields["body_size"])
	assert.Equal(t, "true", respLogs[0].fields["body_truncated"])
	assert.Len(t, respLogs[0].fields["body_preview"], 16)
}

func TestTruncate(t *testing.T) {
	body := []byte("abcdef")

	got, truncated := truncate(body, 3)
	assert.Equal(t, []byte("abc"), got)
	assert.True(t, truncated)

	got, truncated = truncate(body, 10)
	assert.Equal(t, body, got)
	assert.False(t, truncated)

	got, truncated = truncate(body, 0)
	assert.Equal(t, body, got)
	assert.False(t, truncated)
}

func TestRedactHeaders(t *testing.T) {
	in := map[string]string{
		"authorization": "Bearer x",
		"AUTHORIZATION": "Bearer y",
		"Accept":        testContentType,
	}

	out := redactHeaders(in)

	assert.Equal(t, RedactedValue, out["authorization"])
	assert.Equal(t, RedactedValue, out["AUTHORIZATION"])
	assert.Equal(t, testContentType, out["Accept"])
	assert.Equal(t, "Bearer x", in["authorization"], "input must not be modified")
}

func TestLogExchangeWithZeroLogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOptions(logger.Options{Level: "debug", Output: &buf})
	c := newTestClient(t, newScriptedDoer(nethttp.StatusOK), NeverRetry, WithLogger(log))

	_, err := c.Request(context.Background(), &Request{
		Method:  MethodGet,
		URL:     testURL,
		Headers: map[string]string{"Authorization": testBearer},
	})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	out := buf.String()
	assert.NotContains(t, out, "secret-token")
	assert.Contains(t, out, logMsgCompleted)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, nethttp.MethodGet, info["method"])
	assert.InDelta(t, float64(nethttp.StatusOK), info["status"], 0)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestCloseLeavesSharedAsyncLoggerWorking(t *testing.T) {
	out := &lockedBuffer{}
	log := logger.NewWithOptions(logger.Options{Level: "info", Async: true, BufferSize: 64, Output: out})
	t.Cleanup(func() { _ = log.Close() })
	first := newTestClient(t, newScriptedDoer(nethttp.StatusOK), NeverRetry, WithLogger(log))
	second := newTestClient(t, newScriptedDoer(nethttp.StatusOK), NeverRetry, WithLogger(log))

	_, err := first.Request(context.Background(), getRequest())
	require.NoError(t, err)
	require.NoError(t, first.Close())
	before := strings.Count(out.String(), logMsgCompleted)
	assert.Equal(t, 1, before)

	_, err = second.Request(context.Background(), getRequest())
	require.NoError(t, err)
	log.Info().Msg("still logging")
	require.NoError(t, second.Close())

	assert.Equal(t, 2, strings.Count(out.String(), logMsgCompleted))
	assert.Contains(t, out.String(), "still logging")
}
