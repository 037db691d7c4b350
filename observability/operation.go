package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one inbound request from its span start to the request
// metrics recorded when it ends.
type Operation struct {
	Service   string
	Route     string
	RequestID string

	start   time.Time
	span    trace.Span
	metrics *Metrics
}

type operationKey struct{}

// StartOperation opens an http.request span for route and counts the request
// as in flight. metrics may be nil.
func StartOperation(ctx context.Context, service, route, requestID string, metrics *Metrics) (context.Context, *Operation) {
	op := &Operation{
		Service:   service,
		Route:     route,
		RequestID: requestID,
		start:     time.Now(),
		metrics:   metrics,
	}
	ctx, op.span = StartSpan(ctx, SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String(AttrRoute, route),
			attribute.String(AttrRequestID, requestID),
		))
	if metrics != nil {
		metrics.RecordRequestStart(ctx)
	}
	return context.WithValue(ctx, operationKey{}, op), op
}

// OperationFromContext returns the request's Operation, or nil.
func OperationFromContext(ctx context.Context) *Operation {
	op, _ := ctx.Value(operationKey{}).(*Operation)
	return op
}

// End closes the span with status and err and records the request.
func (op *Operation) End(ctx context.Context, status string, err error) {
	elapsed := time.Since(op.start)
	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, elapsed.Milliseconds()),
	)
	op.span.End()

	if op.metrics != nil {
		op.metrics.RecordRequestEnd(ctx, op.Service, op.Route, status, elapsed)
	}
}
