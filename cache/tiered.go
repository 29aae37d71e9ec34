package cache

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/folio/logger"
)

// Tiered combines a fast local cache with a shared remote one. Get checks
// L1 first, then L2, and backfills L1 on an L2 hit. Writes and deletes go
// to both.
//
// L2 failures on Get are logged and treated as a miss, so a Redis outage
// only costs an upstream fetch.
type Tiered struct {
	l1       Cache
	l2       Cache
	l1Expire time.Duration
	log      *logger.Logger
}

var _ Cache = (*Tiered)(nil)

// NewTiered creates a tiered cache. l1Expire bounds how long an L2
// backfill lives in L1.
func NewTiered(l1, l2 Cache, l1Expire time.Duration) *Tiered {
	return &Tiered{l1: l1, l2: l2, l1Expire: l1Expire, log: logger.WithComponent("cache")}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := t.l1.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if found {
		return val, true, nil
	}

	val, found, err = t.l2.Get(ctx, key)
	if err != nil {
		t.log.Warn("L2 cache read failed", map[string]interface{}{
			logger.FieldError: err.Error(),
			"key":             key,
		})
		return nil, false, nil
	}
	if !found {
		return nil, false, nil
	}
	_ = t.l1.Set(ctx, key, val, t.l1Expire)
	return val, true, nil
}

// Set writes both tiers. A value L1 declines to store still goes to L2.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.l1.Set(ctx, key, value, ttl); err != nil {
		if !errors.Is(err, ErrNotStored) {
			return err
		}
		t.log.Debug("L1 cache declined value", map[string]interface{}{
			logger.FieldError: err.Error(),
			"key":             key,
		})
	}
	return t.l2.Set(ctx, key, value, ttl)
}

// Delete removes key from both tiers. Both are attempted even when the
// first fails.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	return errors.Join(t.l1.Delete(ctx, key), t.l2.Delete(ctx, key))
}
