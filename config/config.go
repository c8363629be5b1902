// Package config loads SDK configuration from defaults, YAML files and the environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is stripped from environment variables before mapping them onto keys
	EnvPrefix = "SHEETSDK_"
	// DefaultFile is the YAML file read by Load when present
	DefaultFile = "config.yaml"
)

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. config.yaml and config.<env>.yaml, when present
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	return LoadFile(DefaultFile)
}

// LoadFile is Load with an explicit YAML path. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadOptionalFile(k, path); err != nil {
		return nil, err
	}

	if env := k.String("app.env"); env != "" && path != "" {
		envFile := strings.TrimSuffix(path, ".yaml") + "." + env + ".yaml"
		if err := loadOptionalFile(k, envFile); err != nil {
			return nil, err
		}
	}

	return finish(k, os.Environ)
}

// LoadFromBytes loads defaults, then the given YAML document, then the environment.
func LoadFromBytes(data []byte) (*Config, error) {
	return loadBytes(data, os.Environ)
}

func loadBytes(data []byte, environ func() []string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	return finish(k, environ)
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func finish(k *koanf.Koanf, environ func() []string) (*Config, error) {
	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix:        EnvPrefix,
		EnvironFunc:   environ,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey converts SHEETSDK_HTTP_RETRY_MAXATTEMPTS to http.retry.maxattempts.
func envKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "sheets-go-sdk",
		"app.version": "v1.0.0",
		"app.env":     EnvDevelopment,

		"log.level":      "info",
		"log.pretty":     false,
		"log.async":      false,
		"log.buffersize": 1000,

		"http.baseurl":            "https://api.smartsheet.com/2.0",
		"http.timeout":            "30s",
		"http.maxpayloadlogbytes": 1024,
		"http.retry.maxattempts":  0,
		"http.retry.maxelapsed":   "0s",
		"http.ratelimit.rps":      0,
		"http.ratelimit.burst":    1,

		"observability.tracing": false,
		"observability.metrics": false,
		"observability.protocol": "http",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// String returns a raw configuration value by dotted key, for keys not mapped onto Config.
func (c *Config) String(key string) string {
	if c.k == nil {
		return ""
	}
	return c.k.String(key)
}
