package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the SDK configuration: application identity used for the
// user agent, logging preferences, transport settings and observability switches.
// The embedded koanf.Koanf instance allows access to keys not mapped onto the struct.
type Config struct {
	App           AppConfig           `koanf:"app" json:"app" yaml:"app"`
	Log           LogConfig           `koanf:"log" json:"log" yaml:"log"`
	HTTP          HTTPConfig          `koanf:"http" json:"http" yaml:"http"`
	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability"`

	k *koanf.Koanf `json:"-" yaml:"-"`
}

// AppConfig identifies the calling application. Name and Version are embedded
// in the User-Agent header sent with every request.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name" validate:"required"`
	Version string `koanf:"version" json:"version" yaml:"version" validate:"required"`
	Env     string `koanf:"env" json:"env" yaml:"env" validate:"oneof=development staging production"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
	// Async buffers log output; buffered entries are written on client Close
	Async      bool `koanf:"async" json:"async" yaml:"async"`
	BufferSize int  `koanf:"buffersize" json:"buffersize" yaml:"buffersize" validate:"gte=0"`
}

// HTTPConfig holds transport settings.
type HTTPConfig struct {
	BaseURL string        `koanf:"baseurl" json:"baseurl" yaml:"baseurl" validate:"omitempty,url"`
	Token   string        `koanf:"token" json:"-" yaml:"-"`
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" validate:"gt=0"`
	// MaxPayloadLogBytes caps the number of body bytes written to debug logs
	MaxPayloadLogBytes int             `koanf:"maxpayloadlogbytes" json:"maxpayloadlogbytes" yaml:"maxpayloadlogbytes" validate:"gte=0"`
	Retry              RetryConfig     `koanf:"retry" json:"retry" yaml:"retry"`
	RateLimit          RateLimitConfig `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit"`
}

// RetryConfig drives the policy built by httpclient.PolicyFromConfig.
//   - MaxAttempts: total attempts including the first; 1 disables retries, 0 leaves the
//     choice to the consumer (the sheets client then applies its default policy)
//   - MaxElapsed: stop retrying once this much time has passed since the first attempt; 0 means no limit
//   - Statuses: only these status codes are retried; empty means every non-success status
type RetryConfig struct {
	MaxAttempts int           `koanf:"maxattempts" json:"maxattempts" yaml:"maxattempts" validate:"gte=0"`
	MaxElapsed  time.Duration `koanf:"maxelapsed" json:"maxelapsed" yaml:"maxelapsed" validate:"gte=0"`
	Statuses    []int         `koanf:"statuses" json:"statuses" yaml:"statuses" validate:"dive,gte=100,lte=599"`
}

// RateLimitConfig paces outgoing attempts. RPS of 0 disables pacing.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps" json:"rps" yaml:"rps" validate:"gte=0"`
	Burst int     `koanf:"burst" json:"burst" yaml:"burst" validate:"gte=0"`
}

// ObservabilityConfig toggles OpenTelemetry instrumentation of the transport.
// An empty Endpoint exports to stdout; otherwise data is sent over OTLP using Protocol.
type ObservabilityConfig struct {
	Tracing  bool   `koanf:"tracing" json:"tracing" yaml:"tracing"`
	Metrics  bool   `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Endpoint string `koanf:"endpoint" json:"endpoint" yaml:"endpoint" validate:"omitempty,hostname_port"`
	Protocol string `koanf:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=http grpc"`
	Insecure bool   `koanf:"insecure" json:"insecure" yaml:"insecure"`
}
