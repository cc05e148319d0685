package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error taxonomy. These codes are the only error surface a client
// ever sees; raw internal errors stay in the logs.
const (
	ErrBadRequest   = "bad_request"
	ErrUnauthorized = "unauthorized"
	ErrForbidden    = "forbidden"
	ErrRateLimit    = "rate_limit"
	ErrToolError    = "tool_error"
	ErrTimeout      = "timeout"
	ErrStorage      = "storage_error"
	ErrInternal     = "internal"
)

// ChatError is a classified error with a stable code. Codes detected before
// generation starts short-circuit the request; timeout and storage errors
// terminate a run as its terminal stream event.
type ChatError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ChatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewChatError creates a ChatError with the given taxonomy code.
func NewChatError(code, format string, args ...interface{}) *ChatError {
	return &ChatError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// HTTPStatus maps the taxonomy code to an HTTP status for pre-stream
// failures. Errors that occur mid-stream are delivered as events instead.
func (e *ChatError) HTTPStatus() int {
	switch e.Code {
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AsChatError extracts a ChatError from err, classifying unknown errors
// as internal.
func AsChatError(err error) *ChatError {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce
	}
	return &ChatError{Code: ErrInternal, Message: "an unexpected error occurred"}
}
