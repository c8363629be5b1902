package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"

	"github.com/gaborage/sheetsdk/config"
)

const (
	// DefaultBufferSize is the diode ring size used for asynchronous output
	DefaultBufferSize = 1000
	// diodePollInterval is how often the diode reader drains the ring
	diodePollInterval = 10 * time.Millisecond
)

// Options configures a ZeroLogger.
type Options struct {
	// Level is a zerolog level name; unknown values fall back to info
	Level string
	// Pretty enables human-readable console output
	Pretty bool
	// Async routes output through a non-blocking diode buffer drained by Flush and Close
	Async bool
	// BufferSize is the diode ring size (default: DefaultBufferSize)
	BufferSize int
	// Output is the destination writer (default: os.Stdout)
	Output io.Writer
	// Filter configures sensitive field masking (default: DefaultFilterConfig)
	Filter *FilterConfig
}

// ZeroLogger wraps zerolog.Logger to implement the Logger interface.
type ZeroLogger struct {
	zlog   *zerolog.Logger
	filter *SensitiveDataFilter
	sink   *sink
}

// sink owns the writer so that every logger derived with WithFields flushes the same buffer.
// In async mode writes go through the current diode; Flush swaps in a fresh one.
type sink struct {
	out    io.Writer
	mu     sync.RWMutex
	async  bool
	size   int
	diode  *diode.Writer
	closed bool
}

var (
	_ Logger  = (*ZeroLogger)(nil)
	_ Flusher = (*ZeroLogger)(nil)
)

var callerMarshalOnce sync.Once

// New creates a ZeroLogger writing synchronously to stdout.
// If pretty is true, output will be formatted for human readability.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithOptions(Options{Level: level, Pretty: pretty})
}

// NewWithFilter creates a ZeroLogger with a custom sensitive field configuration.
func NewWithFilter(level string, pretty bool, filterConfig *FilterConfig) *ZeroLogger {
	return NewWithOptions(Options{Level: level, Pretty: pretty, Filter: filterConfig})
}

// NewWithOptions creates a ZeroLogger from Options.
func NewWithOptions(opts Options) *ZeroLogger {
	callerMarshalOnce.Do(func() {
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			base := filepath.Base(file)
			parent := filepath.Base(filepath.Dir(file))
			if parent != "." && parent != "" {
				return parent + "/" + base + ":" + strconv.Itoa(line)
			}
			return base + ":" + strconv.Itoa(line)
		}
	})

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	s := &sink{out: out}
	if opts.Async {
		s.async = true
		s.size = opts.BufferSize
		if s.size <= 0 {
			s.size = DefaultBufferSize
		}
		s.diode = s.newDiode()
	}

	l := zerolog.New(s).With().Timestamp().CallerWithSkipFrameCount(3).Logger()

	zLevel, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		zLevel = zerolog.InfoLevel
	}
	l = l.Level(zLevel)

	return &ZeroLogger{zlog: &l, filter: NewSensitiveDataFilter(opts.Filter), sink: s}
}

// WithContext returns the logger stored in ctx by zerolog, or l when there is none.
func (l *ZeroLogger) WithContext(ctx any) Logger {
	if c, ok := ctx.(context.Context); ok {
		zl := zerolog.Ctx(c)
		if zl == nil || zl.GetLevel() == zerolog.Disabled {
			return l
		}
		return &ZeroLogger{zlog: zl, filter: l.filter, sink: l.sink}
	}
	return l
}

// WithFields returns a logger with additional fields attached to all log entries.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	log := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &log, filter: l.filter, sink: l.sink}
}

// Flush blocks until buffered output has been written. The logger keeps
// working afterwards.
func (l *ZeroLogger) Flush() error {
	if l.sink == nil {
		return nil
	}
	return l.sink.flush(false)
}

// Close drains buffered output and stops the async reader. Entries logged
// after Close are written synchronously.
func (l *ZeroLogger) Close() error {
	if l.sink == nil {
		return nil
	}
	return l.sink.flush(true)
}

func (s *sink) newDiode() *diode.Writer {
	// the diode closes writers it owns; the caller's writer stays open
	dw := diode.NewWriter(struct{ io.Writer }{s.out}, s.size, diodePollInterval, func(missed int) {
		fmt.Fprintf(os.Stderr, "logger: dropped %d messages\n", missed)
	})
	return &dw
}

func (s *sink) Write(p []byte) (int, error) {
	if !s.async {
		return s.out.Write(p)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return s.out.Write(p)
	}
	return s.diode.Write(p)
}

// flush closes the current diode, which returns once its ring is drained,
// then installs a new one unless the sink is being closed.
func (s *sink) flush(final bool) error {
	if s.async {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return nil
		}
		err := s.diode.Close()
		if final {
			s.closed = true
			s.diode = nil
		} else {
			s.diode = s.newDiode()
		}
		return err
	}
	if syncer, ok := s.out.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil && !isUnsyncable(err) {
			return err
		}
	}
	return nil
}

// isUnsyncable reports the error returned when syncing a terminal or pipe.
func isUnsyncable(err error) bool {
	return errors.Is(err, syscall.EINVAL)
}

// Nop returns a logger that discards every entry.
func Nop() *ZeroLogger {
	l := zerolog.Nop()
	return &ZeroLogger{zlog: &l, filter: NewSensitiveDataFilter(nil), sink: &sink{out: io.Discard}}
}

// FromConfig creates a ZeroLogger writing to stdout from loaded log settings.
func FromConfig(cfg config.LogConfig) *ZeroLogger {
	return NewWithOptions(Options{
		Level:      cfg.Level,
		Pretty:     cfg.Pretty,
		Async:      cfg.Async,
		BufferSize: cfg.BufferSize,
	})
}
