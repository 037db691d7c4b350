// Package observability provides OpenTelemetry tracing and metrics for the
// service: OTLP/HTTP exporters, HTTP request instruments, and the fetch and
// upstream-attempt instruments recorded by the template fetcher.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &tracerCfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanFetchTemplates)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &meterCfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("memecraft"))
//	metrics.RecordAttempt(ctx, "relay", "success", elapsed)
package observability
