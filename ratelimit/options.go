package ratelimit

// Option configures a Throttler or Debouncer.
type Option func(*options)

type options struct {
	clock Clock
}

func resolveOptions(opts []Option) options {
	o := options{clock: RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = RealClock{}
	}
	return o
}

// WithClock overrides the time source. Defaults to RealClock.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}
