package config

import (
	"fmt"
	"strings"
)

// ConfigError represents a configuration error with actionable guidance.
// All error messages are lowercase following Go conventions.
//
//nolint:revive // ConfigError is intentionally named for clarity in external API usage
type ConfigError struct {
	Category string // "missing" or "invalid"
	Field    string // dotted config key, e.g. "http.retry.maxattempts"
	Message  string
	Action   string
}

// Error implements the error interface with lowercase formatting.
func (e *ConfigError) Error() string {
	var parts []string

	if e.Category != "" {
		parts = append(parts, fmt.Sprintf("config_%s:", e.Category))
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Action != "" {
		parts = append(parts, e.Action)
	}

	return strings.Join(parts, " ")
}

// NewMissingFieldError creates an error for a required missing configuration field.
func NewMissingFieldError(field string) *ConfigError {
	return &ConfigError{
		Category: "missing",
		Field:    field,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to config.yaml", envVarFor(field), field),
	}
}

// NewInvalidFieldError creates an error for an invalid configuration value.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: "invalid",
		Field:    field,
		Message:  message,
	}
	if len(validOptions) > 0 {
		err.Action = fmt.Sprintf("must be one of: %s", strings.Join(validOptions, ", "))
	}
	return err
}

func envVarFor(field string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(field, ".", "_"))
}
