package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/folio/errors"
	"github.com/kbukum/folio/resilience"
)

// ErrorCode classifies a failed call.
type ErrorCode string

const (
	ErrCodeTimeout    ErrorCode = "timeout"
	ErrCodeConnection ErrorCode = "connection"
	ErrCodeRequest    ErrorCode = "request" // could not build the request
	ErrCodeAuth       ErrorCode = "auth"
	ErrCodeNotFound   ErrorCode = "not_found"
	ErrCodeRateLimit  ErrorCode = "rate_limit"
	ErrCodeRejected   ErrorCode = "rejected" // other 4xx, usually a bad query
	ErrCodeServer     ErrorCode = "server"
	ErrCodeDecode     ErrorCode = "decode"
)

// Error is a classified client failure. StatusCode is 0 when no response
// was received.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(code ErrorCode, retryable bool, err error) *Error {
	return &Error{Code: code, Message: err.Error(), Retryable: retryable, Err: err}
}

// NewTimeoutError reports a call that ran out of time.
func NewTimeoutError(err error) *Error { return wrapError(ErrCodeTimeout, true, err) }

// NewConnectionError reports a call that never got a complete response.
func NewConnectionError(err error) *Error { return wrapError(ErrCodeConnection, true, err) }

// NewDecodeError reports a response body that could not be decoded.
func NewDecodeError(err error) *Error { return wrapError(ErrCodeDecode, false, err) }

func newRequestError(err error) *Error { return wrapError(ErrCodeRequest, false, err) }

// ClassifyStatusCode returns the error for a non-2xx status, or nil.
// 429 and 5xx are retryable.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeRejected
	default:
		e.Code, e.Retryable = ErrCodeServer, statusCode >= 500
	}
	return e
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsTimeout reports whether err is a client timeout.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsNotFound reports whether the upstream answered 404.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsRateLimit reports whether the upstream answered 429.
func IsRateLimit(err error) bool { return hasCode(err, ErrCodeRateLimit) }

// IsRetryable is the default retry predicate.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// ToAppError maps a client failure against service to an API error.
// Upstream 404s become NotFound for resource; everything else is reported
// as the upstream being unavailable or failing.
func ToAppError(err error, service, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable(service).WithCause(err)
	case IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout(service).WithCause(err)
	case IsNotFound(err):
		return apperrors.NotFound(resource, "").WithCause(err)
	case IsRateLimit(err):
		return apperrors.RateLimited().WithCause(err)
	case hasCode(err, ErrCodeConnection):
		return apperrors.ServiceUnavailable(service).WithCause(err)
	}

	appErr := apperrors.ExternalServiceError(service, err)
	var e *Error
	if !errors.As(err, &e) {
		return appErr
	}
	if e.StatusCode > 0 {
		appErr = appErr.WithDetail("upstream_status", e.StatusCode)
	}
	// A rejected query carries the store's explanation.
	if e.Code == ErrCodeRejected {
		appErr = appErr.WithDetail("upstream_body", string(e.Body))
	}
	return appErr
}
