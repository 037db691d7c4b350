package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	// KindCanceled means the caller's context ended before the request did.
	KindCanceled  Kind = "canceled"
	KindInvalid   Kind = "invalid_request"
	KindTooLarge  Kind = "too_large"
	KindNotFound  Kind = "not_found"
	KindRateLimit Kind = "rate_limit"
	KindServer    Kind = "server"
	// KindStatus covers every other non-2xx reply, redirects included.
	KindStatus Kind = "status"
)

// Error is a classified request failure. StatusCode is zero when no
// response was received.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("httpclient: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed later.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindRateLimit, KindServer:
		return true
	}
	return false
}

// Timeout wraps err as a deadline failure.
func Timeout(err error) *Error { return &Error{Kind: KindTimeout, Err: err} }

// Connection wraps err as a transport failure: refused, reset, DNS.
func Connection(err error) *Error { return &Error{Kind: KindConnection, Err: err} }

// Canceled wraps err as a request abandoned by its caller.
func Canceled(err error) *Error { return &Error{Kind: KindCanceled, Err: err} }

// TooLarge reports a body longer than limit bytes.
func TooLarge(limit int64) *Error {
	return &Error{Kind: KindTooLarge, Err: fmt.Errorf("response body exceeds %d bytes", limit)}
}

// CheckStatus returns nil for 2xx and a classified *Error otherwise.
func CheckStatus(code int, body []byte) *Error {
	if code >= 200 && code < 300 {
		return nil
	}
	kind := KindStatus
	switch {
	case code == http.StatusNotFound:
		kind = KindNotFound
	case code == http.StatusTooManyRequests:
		kind = KindRateLimit
	case code >= 500:
		kind = KindServer
	}
	return &Error{Kind: kind, StatusCode: code, Body: body}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
