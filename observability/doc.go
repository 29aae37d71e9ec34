// Package observability wires OpenTelemetry tracing and metrics.
//
// Both exporters speak OTLP over HTTP and are only started when the
// observability section is enabled. Instruments are created from the
// global meter, so they can be built before the Component starts:
//
//	metrics, err := observability.NewPointerMetrics(observability.Meter("folio"))
//	b := pointer.New(feed, pointer.WithMetrics(metrics))
//
// Content fetches run inside observability.SpanContentFetch spans.
package observability
