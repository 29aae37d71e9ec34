package pointer

import (
	"time"

	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/ratelimit"
)

// DefaultInterval throttles input to roughly 60 updates per second.
const DefaultInterval = 16 * time.Millisecond

// Metrics receives broadcaster events. The observability package provides
// an OpenTelemetry implementation.
type Metrics interface {
	SampleAccepted()
	SampleDropped()
	SubscribersChanged(n int)
}

type nopMetrics struct{}

func (nopMetrics) SampleAccepted()        {}
func (nopMetrics) SampleDropped()         {}
func (nopMetrics) SubscribersChanged(int) {}

// Option configures a Broadcaster.
type Option func(*options)

type options struct {
	interval time.Duration
	clock    ratelimit.Clock
	log      *logger.Logger
	metrics  Metrics
}

// WithInterval sets the throttle window for incoming samples.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithClock sets the clock used by the throttle.
func WithClock(c ratelimit.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func resolveOptions(opts []Option) options {
	o := options{interval: DefaultInterval}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = ratelimit.RealClock{}
	}
	if o.log == nil {
		o.log = logger.WithComponent("pointer")
	}
	if o.metrics == nil {
		o.metrics = nopMetrics{}
	}
	return o
}
