package errors

import (
	"fmt"
	"math"
	"net/http"
	"time"
)

// User-facing messages for template fetch failures.
const (
	MsgTimeout         = "Request timeout. Please check your internet connection and try again."
	MsgNetworkFailure  = "Network error. Please check your internet connection and try again."
	MsgTooManyRequests = "Too many requests. Please wait a moment and try again."
	MsgServerError     = "Server error. Please try again later."
	MsgFetchFailed     = "Failed to load memes. Please try again later."
)

// Detail keys attached to fetch errors.
const (
	DetailWaitMS          = "wait_ms"
	DetailStatus          = "status"
	DetailUpstreamMessage = "upstream_message"
	DetailTransport       = "transport"
	DetailPrimaryError    = "primary_error"
)

// RateLimitExceeded reports that the local quota is exhausted. The caller
// should wait at least wait before trying again.
func RateLimitExceeded(wait time.Duration) *AppError {
	wait = max(wait, 0)
	seconds := int(math.Ceil(wait.Seconds()))
	msg := fmt.Sprintf("Rate limit exceeded. Please wait %d seconds before trying again.", seconds)
	return newError(ErrCodeRateLimited, http.StatusTooManyRequests, msg).
		WithDetail(DetailWaitMS, wait.Milliseconds())
}

// Timeout reports an outbound attempt that exceeded its deadline.
func Timeout(cause error) *AppError {
	return newError(ErrCodeTimeout, http.StatusGatewayTimeout, MsgTimeout).WithCause(cause)
}

// NetworkFailure reports a transport-level failure.
func NetworkFailure(cause error) *AppError {
	return newError(ErrCodeNetworkFailure, http.StatusBadGateway, MsgNetworkFailure).WithCause(cause)
}

// UpstreamHTTP reports a non-success HTTP status from the upstream. 429 and
// 5xx get their own messages; everything else reads as a generic failure.
func UpstreamHTTP(status int, cause error) *AppError {
	msg := MsgFetchFailed
	switch {
	case status == http.StatusTooManyRequests:
		msg = MsgTooManyRequests
	case status >= 500:
		msg = MsgServerError
	}
	return newError(ErrCodeUpstreamHTTP, http.StatusBadGateway, msg).
		WithCause(cause).
		WithDetail(DetailStatus, status)
}

// UpstreamLogical reports a well-formed upstream reply that signals failure.
func UpstreamLogical(upstreamMessage string) *AppError {
	e := newError(ErrCodeUpstreamLogical, http.StatusBadGateway, MsgFetchFailed)
	if upstreamMessage != "" {
		e.WithDetail(DetailUpstreamMessage, upstreamMessage)
	}
	return e
}

// Unknown wraps any failure that matches no other fetch kind.
func Unknown(cause error) *AppError {
	return newError(ErrCodeUnknown, http.StatusInternalServerError, MsgFetchFailed).WithCause(cause)
}

// IsNetworkClass reports whether err is a timeout or a network failure.
func IsNetworkClass(err error) bool {
	switch CodeOf(err) {
	case ErrCodeTimeout, ErrCodeNetworkFailure:
		return true
	default:
		return false
	}
}

// WaitDuration extracts the suggested wait from a rate limit error.
func WaitDuration(err error) (time.Duration, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeRateLimited {
		return 0, false
	}
	ms, ok := appErr.Details[DetailWaitMS].(int64)
	if !ok {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// UpstreamStatus extracts the upstream HTTP status from an UPSTREAM_HTTP_ERROR.
func UpstreamStatus(err error) (int, bool) {
	appErr, ok := AsAppError(err)
	if !ok || appErr.Code != ErrCodeUpstreamHTTP {
		return 0, false
	}
	status, ok := appErr.Details[DetailStatus].(int)
	return status, ok
}
