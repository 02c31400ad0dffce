package runqy

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Publikey/runqy-go/internal/httpclient"
)

// ServiceError is the base error kind for failed calls: any non-success
// status that is not specialized below, or a network-level failure before a
// response was received. The raw response body (or the underlying transport
// error) is preserved for diagnosis.
type ServiceError struct {
	Err        error  // underlying transport error, nil for HTTP status errors
	StatusCode int    // HTTP status code, 0 for network failures
	Body       string // raw response body, empty for network failures
	Message    string // overrides the composed message when set
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// AuthenticationError reports HTTP 401: the API key is invalid or missing.
// Not retried by the client; callers should treat it as terminal.
type AuthenticationError struct {
	*ServiceError
}

func (e *AuthenticationError) Error() string {
	if e.ServiceError.Message != "" {
		return e.ServiceError.Message
	}
	return fmt.Sprintf("authentication failed: %s", e.ServiceError.Body)
}

// Unwrap exposes the underlying ServiceError so errors.As can classify any
// client failure by the base kind.
func (e *AuthenticationError) Unwrap() error {
	return e.ServiceError
}

// NotFoundError reports HTTP 404: the task id is unknown to the server,
// either because it never existed or because it was purged. Terminal, not
// transient.
type NotFoundError struct {
	*ServiceError
}

func (e *NotFoundError) Error() string {
	if e.ServiceError.Message != "" {
		return e.ServiceError.Message
	}
	return fmt.Sprintf("task not found: %s", e.ServiceError.Body)
}

// Unwrap exposes the underlying ServiceError so errors.As can classify any
// client failure by the base kind.
func (e *NotFoundError) Unwrap() error {
	return e.ServiceError
}

// NewServiceError builds the generic error kind for a non-success status.
func NewServiceError(statusCode int, body string) *ServiceError {
	return &ServiceError{StatusCode: statusCode, Body: body}
}

// NewConnectionError builds the generic error kind for a network-level
// failure (DNS, refused connection, timeout, cancellation).
func NewConnectionError(err error) *ServiceError {
	return &ServiceError{Err: err}
}

// NewAuthenticationError builds the error kind for HTTP 401.
func NewAuthenticationError(statusCode int, body string) *AuthenticationError {
	return &AuthenticationError{ServiceError: &ServiceError{StatusCode: statusCode, Body: body}}
}

// NewNotFoundError builds the error kind for HTTP 404.
func NewNotFoundError(statusCode int, body string) *NotFoundError {
	return &NotFoundError{ServiceError: &ServiceError{StatusCode: statusCode, Body: body}}
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsNotFound reports whether err signals an unknown task id.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// AsServiceError extracts the base error kind from any client failure,
// specialized or not, giving access to the status code and raw body.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}

// IsResponseTooLarge reports whether err was caused by a response body
// exceeding the client's configured size bound.
func IsResponseTooLarge(err error) bool {
	return httpclient.IsResponseTooLarge(err)
}

// classifyStatus maps a non-2xx response to the error taxonomy. Classification
// happens here, at the transport boundary, and never downstream.
func classifyStatus(statusCode int, body []byte) error {
	text := string(body)
	switch statusCode {
	case http.StatusUnauthorized:
		return NewAuthenticationError(statusCode, text)
	case http.StatusNotFound:
		return NewNotFoundError(statusCode, text)
	default:
		return NewServiceError(statusCode, text)
	}
}
