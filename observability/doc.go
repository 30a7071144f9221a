// Package observability wires OpenTelemetry tracing and metrics for the
// transcription worker.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg, "transcribot", version.Short(), log)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanWorkerProcess)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter())
//	metrics.RecordJob(ctx, "success")
//
// When exporting is disabled the global no-op providers stay in place, so
// spans and instruments are always safe to use.
package observability
