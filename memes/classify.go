package memes

import (
	"context"
	stderrors "errors"
	"maps"
	"net"
	"strings"

	"github.com/atul-1602/memecraft/errors"
	"github.com/atul-1602/memecraft/httpclient"
	"github.com/atul-1602/memecraft/resilience"
)

// classify maps a raw attempt failure onto the fetch error taxonomy.
// deadlineHit reports that the attempt's own deadline expired.
func classify(err error, deadlineHit bool) *errors.AppError {
	if appErr, ok := errors.AsAppError(err); ok {
		cp := *appErr
		cp.Details = maps.Clone(appErr.Details)
		return &cp
	}

	var logical *LogicalError
	if stderrors.As(err, &logical) {
		return errors.UpstreamLogical(logical.Message).WithCause(err)
	}

	var httpErr *httpclient.Error
	if stderrors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode > 0:
			return errors.UpstreamHTTP(httpErr.StatusCode, err)
		case httpErr.Kind == httpclient.KindTimeout:
			return errors.Timeout(err)
		case httpErr.Kind == httpclient.KindConnection && !deadlineHit:
			return errors.NetworkFailure(err)
		}
	}

	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		return errors.NetworkFailure(err)
	}
	if deadlineHit || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(err)
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		if netErr.Timeout() {
			return errors.Timeout(err)
		}
		return errors.NetworkFailure(err)
	}

	return errors.Unknown(err)
}

// outcomeOf turns an error into a metrics label.
func outcomeOf(err error) string {
	code := errors.CodeOf(err)
	if code == "" {
		code = errors.ErrCodeUnknown
	}
	return strings.ToLower(string(code))
}
