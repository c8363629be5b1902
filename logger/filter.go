package logger

import (
	"net/url"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive values in log output
	DefaultMaskValue = "[Redacted]"
	// DefaultMaxDepth is the default maximum recursion depth for filtering
	DefaultMaxDepth = 8
)

// FilterConfig defines the configuration for sensitive data filtering
type FilterConfig struct {
	// SensitiveFields contains field name fragments that should be masked in logs
	SensitiveFields []string
	// MaskValue is the value used to replace sensitive data (default: DefaultMaskValue)
	MaskValue string
}

// DefaultFilterConfig returns a default configuration with common sensitive field names
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "secret",
			"api_key", "apikey", "api-key",
			"token", "access_token", "refresh_token",
			"authorization", "cookie",
			"credential",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks values stored under sensitive keys.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a new filter with the given configuration
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString filters sensitive data from string values
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitiveField(key) {
		return f.maskString(value)
	}
	return value
}

// FilterValue masks value when key is sensitive and descends into string-keyed maps.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filterValue(key, value, DefaultMaxDepth)
}

// FilterFields filters a map of fields for sensitive data
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

func (f *SensitiveDataFilter) filterValue(key string, value any, depth int) any {
	if f.isSensitiveField(key) {
		if s, ok := value.(string); ok {
			return f.maskString(s)
		}
		return f.config.MaskValue
	}
	if depth <= 0 {
		return value
	}

	switch v := value.(type) {
	case map[string]any:
		filtered := make(map[string]any, len(v))
		for k, inner := range v {
			filtered[k] = f.filterValue(k, inner, depth-1)
		}
		return filtered
	case map[string]string:
		filtered := make(map[string]string, len(v))
		for k, inner := range v {
			filtered[k] = f.FilterString(k, inner)
		}
		return filtered
	case map[string][]string:
		filtered := make(map[string][]string, len(v))
		for k, inner := range v {
			if f.isSensitiveField(k) {
				filtered[k] = []string{f.config.MaskValue}
				continue
			}
			filtered[k] = inner
		}
		return filtered
	case []any:
		filtered := make([]any, len(v))
		for i, inner := range v {
			filtered[i] = f.filterValue(key, inner, depth-1)
		}
		return filtered
	default:
		return value
	}
}

// isSensitiveField checks if a field name is considered sensitive
func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, sensitive := range f.config.SensitiveFields {
		if strings.Contains(lower, strings.ToLower(sensitive)) {
			return true
		}
	}
	return false
}

// maskString masks the whole value, except URLs which only lose their password.
func (f *SensitiveDataFilter) maskString(value string) string {
	if value == "" {
		return value
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return f.maskURL(value)
	}
	return f.config.MaskValue
}

func (f *SensitiveDataFilter) maskURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return f.config.MaskValue
	}
	if parsed.User == nil {
		return raw
	}
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return raw
	}
	parsed.User = url.UserPassword(parsed.User.Username(), f.config.MaskValue)
	// userinfo is percent-encoded by String; restore the marker verbatim
	return strings.Replace(parsed.String(), url.QueryEscape(f.config.MaskValue), f.config.MaskValue, 1)
}
