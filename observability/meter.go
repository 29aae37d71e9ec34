package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/pointer"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The caller shuts the provider down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("Meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider. Instruments made
// before a provider is installed start recording once it is.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// PointerMetrics records broadcaster activity. It implements
// pointer.Metrics.
type PointerMetrics struct {
	accepted    metric.Int64Counter
	dropped     metric.Int64Counter
	subscribers metric.Int64Gauge
}

var _ pointer.Metrics = (*PointerMetrics)(nil)

// NewPointerMetrics creates the broadcaster instruments on meter.
func NewPointerMetrics(meter metric.Meter) (*PointerMetrics, error) {
	accepted, err := meter.Int64Counter("pointer.samples.accepted",
		metric.WithDescription("Pointer samples passed by the throttle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pointer.samples.accepted counter: %w", err)
	}

	dropped, err := meter.Int64Counter("pointer.samples.dropped",
		metric.WithDescription("Pointer samples dropped by the throttle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pointer.samples.dropped counter: %w", err)
	}

	subscribers, err := meter.Int64Gauge("pointer.subscribers",
		metric.WithDescription("Active pointer subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pointer.subscribers gauge: %w", err)
	}

	return &PointerMetrics{accepted: accepted, dropped: dropped, subscribers: subscribers}, nil
}

func (m *PointerMetrics) SampleAccepted() { m.accepted.Add(context.Background(), 1) }
func (m *PointerMetrics) SampleDropped()  { m.dropped.Add(context.Background(), 1) }
func (m *PointerMetrics) SubscribersChanged(n int) {
	m.subscribers.Record(context.Background(), int64(n))
}

// HTTPMetrics records request counts and latency.
type HTTPMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the request instruments on meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestTotal, err := meter.Int64Counter("http.request.total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.request.total counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("http.request.duration",
		metric.WithDescription("Duration of requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.request.duration histogram: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("http.request.active",
		metric.WithDescription("Number of in-flight requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.request.active counter: %w", err)
	}

	return &HTTPMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestActive:   requestActive,
	}, nil
}

// RequestStarted increments the in-flight count.
func (m *HTTPMetrics) RequestStarted(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RequestFinished decrements the in-flight count and records the request.
func (m *HTTPMetrics) RequestFinished(ctx context.Context, method, route string, status int, duration time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
	))
}
