package pointer

import "sync"

// Source is the underlying input listener a Broadcaster attaches to.
// Attach installs the handler that receives raw samples; Detach removes it.
type Source interface {
	Attach(handler func(Sample))
	Detach()
}

// Feed is an in-process Source. Transports push samples into it and the
// Broadcaster receives them while attached.
type Feed struct {
	mu      sync.RWMutex
	handler func(Sample)
}

// NewFeed creates a detached Feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Attach implements Source.
func (f *Feed) Attach(handler func(Sample)) {
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
}

// Detach implements Source.
func (f *Feed) Detach() {
	f.mu.Lock()
	f.handler = nil
	f.mu.Unlock()
}

// Push hands s to the attached handler. It returns false and drops the
// sample when nothing is attached. The handler runs on the caller's
// goroutine without the Feed's lock held.
func (f *Feed) Push(s Sample) bool {
	f.mu.RLock()
	h := f.handler
	f.mu.RUnlock()

	if h == nil {
		return false
	}
	h(s)
	return true
}

// Attached reports whether a handler is installed.
func (f *Feed) Attached() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.handler != nil
}
