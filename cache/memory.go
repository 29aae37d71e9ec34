package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

const defaultMaxBytes = 16 << 20

// ErrNotStored is returned by Memory.Set when ristretto declines a value:
// it is larger than the cache, the write buffer is full, or the admission
// policy rejects it.
var ErrNotStored = errors.New("cache: value not stored")

// Memory is an in-process cache bounded by the total size of its values.
type Memory struct {
	c *ristretto.Cache[string, []byte]
}

var _ Cache = (*Memory)(nil)

// NewMemory creates a ristretto-backed cache holding at most maxBytes of
// values. Zero or negative means 16MB.
func NewMemory(maxBytes int64) (*Memory, error) {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters:        max(1000, maxBytes/1024*10),
		MaxCost:            maxBytes,
		BufferItems:        64,
		Metrics:            true,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &Memory{c: c}, nil
}

// Get returns the value at key if it is present and not expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	val, found := m.c.Get(key)
	if !found {
		return nil, false, nil
	}
	return val, true, nil
}

// Set stores value and waits until it is visible to Get. It returns
// ErrNotStored when the value was not admitted.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cost := int64(len(value))
	if limit := m.c.MaxCost(); cost > limit {
		return fmt.Errorf("%w: %s is %d bytes, capacity %d", ErrNotStored, key, cost, limit)
	}
	if !m.c.SetWithTTL(key, value, cost, ttl) {
		return fmt.Errorf("%w: %s dropped", ErrNotStored, key)
	}
	m.c.Wait()
	if _, ok := m.c.GetTTL(key); !ok {
		return fmt.Errorf("%w: %s rejected by admission policy", ErrNotStored, key)
	}
	return nil
}

// Delete removes key. Missing keys are not an error.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Del(key)
	return nil
}

// Stats returns hit and miss counts since creation.
func (m *Memory) Stats() (hits, misses uint64) {
	return m.c.Metrics.Hits(), m.c.Metrics.Misses()
}

// Close stops the cache's background goroutines.
func (m *Memory) Close() {
	m.c.Close()
}
