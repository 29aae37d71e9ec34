package pointer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/folio/logger"
	"github.com/kbukum/folio/ratelimit"
)

// Listener receives pointer coordinates.
type Listener func(x, y float64)

// Broadcaster keeps the latest pointer sample and fans it out to every
// subscriber. Input is throttled, and the Source is attached only while at
// least one subscriber exists.
//
// Create one Broadcaster at startup and pass it to the transports that need
// it.
type Broadcaster struct {
	source   Source
	interval time.Duration
	log      *logger.Logger
	metrics  Metrics
	throttle *ratelimit.Throttler[Sample, struct{}]

	mu       sync.Mutex
	sample   Sample
	subs     map[uint64]*subscription
	nextID   uint64
	attached bool
}

type subscription struct {
	id     uint64
	fn     Listener
	active atomic.Bool
	// deliver orders the immediate call on subscribe before any fan-out.
	deliver sync.Mutex
}

// New creates a detached Broadcaster reading from source.
func New(source Source, opts ...Option) *Broadcaster {
	o := resolveOptions(opts)
	b := &Broadcaster{
		source:   source,
		interval: o.interval,
		log:      o.log,
		metrics:  o.metrics,
		subs:     make(map[uint64]*subscription),
	}
	b.throttle = ratelimit.NewThrottler(b.publish, o.interval, ratelimit.WithClock(o.clock))
	return b
}

// Subscribe adds listener and calls it once with the current position
// before returning. The first subscriber attaches the Source.
//
// The caller must call the returned function when it no longer wants
// updates; a listener that is never unsubscribed stays registered for the
// life of the Broadcaster. Unsubscribing more than once is a no-op, and it
// is safe to unsubscribe from inside the listener.
//
// Listeners run synchronously on the goroutine that pushed the sample and
// must not push samples themselves.
func (b *Broadcaster) Subscribe(listener Listener) (unsubscribe func()) {
	sub := &subscription{fn: listener}
	sub.active.Store(true)

	b.mu.Lock()
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	count := len(b.subs)
	if !b.attached {
		b.source.Attach(b.handle)
		b.attached = true
		b.log.Debug("Source attached")
	}
	sub.deliver.Lock()
	current := b.sample
	b.mu.Unlock()

	b.metrics.SubscribersChanged(count)
	listener(current.X, current.Y)
	sub.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(sub) })
	}
}

func (b *Broadcaster) unsubscribe(sub *subscription) {
	sub.active.Store(false)

	b.mu.Lock()
	delete(b.subs, sub.id)
	count := len(b.subs)
	if count == 0 && b.attached {
		b.source.Detach()
		b.attached = false
		b.log.Debug("Source detached")
	}
	b.mu.Unlock()

	b.metrics.SubscribersChanged(count)
}

// handle is the throttled input handler installed on the Source.
func (b *Broadcaster) handle(s Sample) {
	if _, ran := b.throttle.TryCall(s); ran {
		b.metrics.SampleAccepted()
	} else {
		b.metrics.SampleDropped()
	}
}

// publish stores s and calls every listener registered at the time s was
// stored. It runs under the throttle lock, so fan-outs never overlap.
func (b *Broadcaster) publish(s Sample) struct{} {
	b.mu.Lock()
	b.sample = s
	snapshot := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		snapshot = append(snapshot, sub)
	}
	b.mu.Unlock()

	for _, sub := range snapshot {
		sub.deliver.Lock()
		if sub.active.Load() {
			sub.fn(s.X, s.Y)
		}
		sub.deliver.Unlock()
	}
	return struct{}{}
}

// Position returns the latest accepted sample.
func (b *Broadcaster) Position() Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sample
}

// Subscribers returns the number of registered listeners.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Attached reports whether the Source is attached.
func (b *Broadcaster) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attached
}

// Interval returns the throttle window.
func (b *Broadcaster) Interval() time.Duration {
	return b.interval
}

// Stats returns how many samples were accepted and how many were dropped
// by the throttle.
func (b *Broadcaster) Stats() (accepted, dropped uint64) {
	return b.throttle.Stats()
}
