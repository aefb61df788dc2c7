package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds returned by every service call. Match them with errors.Is.
var (
	ErrAuth       = errors.New("authentication required")
	ErrPermission = errors.New("access denied")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrRemote     = errors.New("remote request failed")
)

// APIError represents an error returned by the API
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
	// Detail is the backend-supplied detail message, used verbatim for 422 responses.
	Detail string `json:"-"`
	kind   error
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = e.Detail
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("API error [%s]: %s (status: %d)", e.Code, msg, e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (status: %d)", msg, e.StatusCode)
}

// Unwrap exposes the error kind so callers can use errors.Is(err, ErrNotFound).
func (e *APIError) Unwrap() error {
	if e.kind == nil {
		return kindForStatus(e.StatusCode)
	}
	return e.kind
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 unauthorized error
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403 forbidden error
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsValidationError returns true if the error is a 422 validation error
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == http.StatusUnprocessableEntity
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// kindForStatus maps an HTTP status to an error kind.
func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrAuth
	case http.StatusForbidden:
		return ErrPermission
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrRemote
	}
}

// errorBody covers both the platform envelope and FastAPI style responses.
type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Detail  json.RawMessage `json:"detail"`
}

type fieldDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// newAPIError builds an APIError from a non-2xx response body.
func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, kind: kindForStatus(status)}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	apiErr.Code = eb.Code
	apiErr.Message = eb.Message
	if apiErr.Message == "" {
		apiErr.Message = eb.Error
	}
	apiErr.Detail = parseDetail(eb.Detail)
	return apiErr
}

// parseDetail returns a string detail verbatim and joins list details into one message.
func parseDetail(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var fields []fieldDetail
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			if field := lastLoc(f.Loc); field != "" {
				parts = append(parts, field+": "+f.Msg)
				continue
			}
			parts = append(parts, f.Msg)
		}
		return strings.Join(parts, "; ")
	}

	return string(raw)
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok {
		return s
	}
	return ""
}

// remoteError wraps a transport or decoding failure as ErrRemote.
func remoteError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRemote, msg, err)
}
