package httpclient

import (
	"bytes"
	"errors"
	"io"
	"maps"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gaborage/sheetsdk/logger"
)

// Test constants to avoid string duplication
const (
	testURL         = "https://api.example.com/2.0/sheets"
	testBearer      = "Bearer secret-token"
	testJSONBody    = `{"name":"Q3 plan"}`
	testContentType = "application/json"
)

// fakeLogEvent implements logger.LogEvent for testing
type fakeLogEvent struct {
	logger *fakeLogger
	level  string
	fields map[string]any
}

func (e *fakeLogEvent) Msg(msg string) {
	e.logger.record(loggedEvent{level: e.level, fields: maps.Clone(e.fields), message: msg})
}

func (e *fakeLogEvent) Msgf(format string, _ ...any) {
	e.Msg(format)
}

func (e *fakeLogEvent) Err(err error) logger.LogEvent {
	e.fields["error"] = err
	return e
}

func (e *fakeLogEvent) Str(key, value string) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int(key string, value int) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Int64(key string, value int64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Uint64(key string, value uint64) logger.LogEvent {
	e.fields[key] = value
	return e
}

func (e *fakeLogEvent) Dur(key string, d time.Duration) logger.LogEvent {
	e.fields[key] = d
	return e
}

func (e *fakeLogEvent) Interface(key string, i any) logger.LogEvent {
	e.fields[key] = i
	return e
}

func (e *fakeLogEvent) Bytes(key string, val []byte) logger.LogEvent {
	e.fields[key] = val
	return e
}

// fakeLogger implements logger.Logger and logger.Flusher for testing
type fakeLogger struct {
	mu      sync.Mutex
	events  []loggedEvent
	flushed int
}

type loggedEvent struct {
	level   string
	fields  map[string]any
	message string
}

func (l *fakeLogger) event(level string) logger.LogEvent {
	return &fakeLogEvent{logger: l, level: level, fields: make(map[string]any)}
}

func (l *fakeLogger) Info() logger.LogEvent { return l.event("info") }
func (l *fakeLogger) Error() logger.LogEvent { return l.event("error") }
func (l *fakeLogger) Debug() logger.LogEvent { return l.event("debug") }
func (l *fakeLogger) Warn() logger.LogEvent { return l.event("warn") }
func (l *fakeLogger) Fatal() logger.LogEvent { return l.event("fatal") }

func (l *fakeLogger) WithContext(_ any) logger.Logger { return l }
func (l *fakeLogger) WithFields(_ map[string]any) logger.Logger { return l }

func (l *fakeLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushed++
	return nil
}

func (l *fakeLogger) record(e loggedEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *fakeLogger) byMessage(msg string) []loggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []loggedEvent
	for _, e := range l.events {
		if e.message == msg {
			out = append(out, e)
		}
	}
	return out
}

// recordedRequest is a snapshot of a wire request taken by scriptedDoer
type recordedRequest struct {
	method string
	url    string
	header nethttp.Header
	body   []byte
}

// scriptedDoer replies with statuses in order, repeating the last one once exhausted.
// A non-nil err fails every call instead.
type scriptedDoer struct {
	mu       sync.Mutex
	statuses []int
	body     string
	header   nethttp.Header
	err      error
	requests []recordedRequest
}

func newScriptedDoer(statuses ...int) *scriptedDoer {
	return &scriptedDoer{statuses: statuses, body: `{"result":"ok"}`}
}

func (d *scriptedDoer) Do(req *nethttp.Request) (*nethttp.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, recordedRequest{
		method: req.Method,
		url:    req.URL.String(),
		header: req.Header.Clone(),
		body:   body,
	})
	if d.err != nil {
		return nil, d.err
	}

	status := nethttp.StatusOK
	if len(d.statuses) > 0 {
		idx := min(len(d.requests)-1, len(d.statuses)-1)
		status = d.statuses[idx]
	}

	header := nethttp.Header{"Content-Type": []string{testContentType + "; charset=utf-8"}}
	for k, v := range d.header {
		header[k] = v
	}
	return &nethttp.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(d.body)),
	}, nil
}

func (d *scriptedDoer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.requests)
}

func (d *scriptedDoer) last() recordedRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests[len(d.requests)-1]
}

// stepClock advances by step on every reading
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// failingReader fails every read, simulating a connection dropped mid-body
type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset by peer") }
