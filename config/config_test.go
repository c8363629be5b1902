package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv() []string { return nil }

func envOf(pairs ...string) func() []string {
	return func() []string { return pairs }
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadBytes(nil, noEnv)
	require.NoError(t, err)

	assert.Equal(t, "sheets-go-sdk", cfg.App.Name)
	assert.Equal(t, "v1.0.0", cfg.App.Version)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.False(t, cfg.Log.Async)
	assert.Equal(t, 1000, cfg.Log.BufferSize)

	assert.Equal(t, "https://api.smartsheet.com/2.0", cfg.HTTP.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 1024, cfg.HTTP.MaxPayloadLogBytes)
	assert.Equal(t, 0, cfg.HTTP.Retry.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.HTTP.Retry.MaxElapsed)
	assert.Empty(t, cfg.HTTP.Retry.Statuses)
	assert.Equal(t, float64(0), cfg.HTTP.RateLimit.RPS)
	assert.Equal(t, 1, cfg.HTTP.RateLimit.Burst)

	assert.False(t, cfg.Observability.Tracing)
	assert.False(t, cfg.Observability.Metrics)
	assert.Empty(t, cfg.Observability.Endpoint)
	assert.Equal(t, "http", cfg.Observability.Protocol)
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
app:
  name: reporting-job
  version: 2.3.1
  env: production
log:
  level: debug
  async: true
http:
  timeout: 5s
  retry:
    maxattempts: 4
    maxelapsed: 15s
    statuses: [429, 503]
  ratelimit:
    rps: 5
    burst: 2
observability:
  tracing: true
  endpoint: collector:4318
  insecure: true
`
	cfg, err := loadBytes([]byte(yamlContent), noEnv)
	require.NoError(t, err)

	assert.Equal(t, "reporting-job", cfg.App.Name)
	assert.Equal(t, "2.3.1", cfg.App.Version)
	assert.Equal(t, EnvProduction, cfg.App.Env)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Async)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 4, cfg.HTTP.Retry.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Retry.MaxElapsed)
	assert.Equal(t, []int{429, 503}, cfg.HTTP.Retry.Statuses)
	assert.Equal(t, float64(5), cfg.HTTP.RateLimit.RPS)
	assert.Equal(t, 2, cfg.HTTP.RateLimit.Burst)
	assert.True(t, cfg.Observability.Tracing)
	assert.Equal(t, "collector:4318", cfg.Observability.Endpoint)
	assert.True(t, cfg.Observability.Insecure)
	assert.Equal(t, "reporting-job", cfg.String("app.name"))
}

func TestEnvironmentOverridesYAML(t *testing.T) {
	yamlContent := `
app:
  name: from-yaml
http:
  retry:
    maxattempts: 2
`
	cfg, err := loadBytes([]byte(yamlContent), envOf(
		"SHEETSDK_APP_NAME=from-env",
		"SHEETSDK_HTTP_RETRY_MAXATTEMPTS=6",
		"SHEETSDK_HTTP_TOKEN=secret-token",
		"UNRELATED_VARIABLE=ignored",
	))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.App.Name)
	assert.Equal(t, 6, cfg.HTTP.Retry.MaxAttempts)
	assert.Equal(t, "secret-token", cfg.HTTP.Token)
}

func TestLoadFile(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "sheets-go-sdk", cfg.App.Name)
	})

	t.Run("environment specific file layered on top", func(t *testing.T) {
		dir := t.TempDir()
		base := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(base, []byte("app:\n  env: staging\n  name: base\nhttp:\n  timeout: 10s\n"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.staging.yaml"), []byte("http:\n  timeout: 3s\n"), 0o600))

		cfg, err := LoadFile(base)
		require.NoError(t, err)
		assert.Equal(t, "base", cfg.App.Name)
		assert.Equal(t, EnvStaging, cfg.App.Env)
		assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		field    string
		category string
	}{
		{name: "missing app name", yaml: "app:\n  name: \"\"\n", field: "app.name", category: "missing"},
		{name: "unknown environment", yaml: "app:\n  env: qa\n", field: "app.env", category: "invalid"},
		{name: "unknown log level", yaml: "log:\n  level: chatty\n", field: "log.level", category: "invalid"},
		{name: "zero timeout", yaml: "http:\n  timeout: 0s\n", field: "http.timeout", category: "invalid"},
		{name: "bad base url", yaml: "http:\n  baseurl: not a url\n", field: "http.baseurl", category: "invalid"},
		{name: "negative attempts", yaml: "http:\n  retry:\n    maxattempts: -1\n", field: "http.retry.maxattempts", category: "invalid"},
		{name: "unknown otlp protocol", yaml: "observability:\n  protocol: thrift\n", field: "observability.protocol", category: "invalid"},
		{name: "endpoint without port", yaml: "observability:\n  endpoint: collector\n", field: "observability.endpoint", category: "invalid"},
		{name: "status out of range", yaml: "http:\n  retry:\n    statuses: [42]\n", field: "http.retry.statuses[0]", category: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadBytes([]byte(tt.yaml), noEnv)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, tt.category, cfgErr.Category)
		})
	}
}

func TestConfigErrorFormatting(t *testing.T) {
	missing := NewMissingFieldError("app.name")
	assert.Equal(t, "config_missing: app.name required set SHEETSDK_APP_NAME env var or add app.name to config.yaml", missing.Error())

	invalid := NewInvalidFieldError("log.level", "invalid value chatty", []string{"debug", "info"})
	assert.Equal(t, "config_invalid: log.level invalid value chatty must be one of: debug, info", invalid.Error())
}
