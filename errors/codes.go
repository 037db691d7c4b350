package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Template fetch failures. Every failure of a template fetch is reported with
// exactly one of these codes.
const (
	// ErrCodeRateLimited indicates the local request quota is exhausted.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeTimeout indicates an outbound attempt did not finish within its bound.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeNetworkFailure indicates a transport-level failure (refused, DNS, offline).
	ErrCodeNetworkFailure ErrorCode = "NETWORK_FAILURE"
	// ErrCodeUpstreamHTTP indicates the upstream answered with a non-success status.
	ErrCodeUpstreamHTTP ErrorCode = "UPSTREAM_HTTP_ERROR"
	// ErrCodeUpstreamLogical indicates a well-formed upstream payload that signals failure.
	ErrCodeUpstreamLogical ErrorCode = "UPSTREAM_LOGICAL_ERROR"
	// ErrCodeUnknown is the catch-all for failures matching nothing above.
	ErrCodeUnknown ErrorCode = "UNKNOWN"
)

// Request errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRateLimited:     true,
	ErrCodeTimeout:         true,
	ErrCodeNetworkFailure:  true,
	ErrCodeUpstreamHTTP:    true,
	ErrCodeUpstreamLogical: false,
	ErrCodeUnknown:         true,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the caller may re-issue the operation later.
// Nothing in this module retries on its own; the flag is advice for callers.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
