package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the service. Body holds the raw
// response body; Detail and Fields are populated when the body was a
// parseable error payload.
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int

	// Method and Path identify the failing request.
	Method string
	Path   string

	// Detail is the server-provided error message, when present.
	Detail string

	// Fields maps field names to validation messages for 4xx
	// validation failures.
	Fields map[string][]string

	// Body is the raw response body.
	Body []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = strings.TrimSpace(string(e.Body))
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("api error (%d) on %s %s: %s", e.Status, e.Method, e.Path, msg)
}

// Message returns the best user-facing description of the failure.
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	for field, msgs := range e.Fields {
		if len(msgs) > 0 {
			return fmt.Sprintf("%s: %s", field, msgs[0])
		}
	}
	return http.StatusText(e.Status)
}

// ErrSessionExpired is returned when the refresh token was rejected
// and the session cannot be recovered without a fresh login.
var ErrSessionExpired = errors.New("session expired")

// IsAuthError reports whether err is an authentication failure (401),
// including a terminated session.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrSessionExpired) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsValidationError reports whether err is a 4xx (non-auth) response,
// typically carrying field errors.
func IsValidationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		apiErr.Status >= 400 && apiErr.Status < 500 &&
		apiErr.Status != http.StatusUnauthorized
}

// IsServerError reports whether err is a 5xx response.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500
}

// ErrorMessage extracts a user-facing message from any error returned
// by the client.
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	if errors.Is(err, ErrSessionExpired) {
		return "session expired"
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
