package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is a classified failure with a message that is safe to show to
// end users. Fetch failures and request failures share the type so the API
// renders both through ToResponse.
type AppError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`

	// HTTPStatus is the status the API answers with.
	HTTPStatus int `json:"-"`
	// Cause is kept for logs and errors.Is; it never reaches the client.
	Cause error `json:"-"`
}

func newError(code ErrorCode, status int, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Retryable:  IsRetryableCode(code),
		HTTPStatus: status,
	}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets one detail entry and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// AsAppError finds the first *AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or "" when err is not an AppError.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// NotFound reports a missing resource. id is omitted from details when empty.
func NotFound(resource, id string) *AppError {
	e := newError(ErrCodeNotFound, http.StatusNotFound, fmt.Sprintf("The requested %s was not found.", resource)).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// InvalidRequest reports caller input that failed validation.
func InvalidRequest(message string) *AppError {
	return newError(ErrCodeInvalidInput, http.StatusBadRequest, message)
}

// Internal wraps a failure the caller cannot act on.
func Internal(cause error) *AppError {
	return newError(ErrCodeInternal, http.StatusInternalServerError,
		"An unexpected error occurred. Please try again later.").WithCause(cause)
}
