package sheets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gaborage/sheetsdk/httpclient"
)

// Sentinel errors matched by APIError through errors.Is.
var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrAuthorization      = errors.New("authorization failed")
	ErrNotFound           = errors.New("resource not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrAPI                = errors.New("api error")
)

// APIError is a non-success response decoded from the API error body.
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
	RefID      string `json:"refId"`
}

// Error returns a concise representation suitable for logs and debugging.
func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("sheets api: status %d", e.StatusCode)
	if e.ErrorCode != 0 {
		msg += fmt.Sprintf(" code %d", e.ErrorCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RefID != "" {
		msg += " (ref " + e.RefID + ")"
	}
	return msg
}

// Unwrap maps the status code onto a sentinel error.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return ErrInvalidRequest
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthorization
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return ErrServiceUnavailable
	default:
		return ErrAPI
	}
}

// newAPIError decodes resp. Bodies that are not an API error object keep only the status.
func newAPIError(resp *httpclient.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if resp.Entity != nil && len(resp.Entity.Content) > 0 {
		if err := json.Unmarshal(resp.Entity.Content, apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
