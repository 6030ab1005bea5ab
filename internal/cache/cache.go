// Package cache memoizes per-period results for the lifetime of the process.
//
// Entries are keyed by value (period and fund identifier), computed at most
// once per key between invalidations, and shared by concurrent callers.
package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/fundcomp/internal/cda"
	"github.com/sells-group/fundcomp/internal/resilience"
)

// Key identifies one cached computation. Two keys with equal fields are the
// same key.
type Key struct {
	Period cda.Period
	FundID string
}

func (k Key) String() string {
	return k.Period.String() + "|" + k.FundID
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits         int64  `json:"hits" yaml:"hits"`
	Misses       int64  `json:"misses" yaml:"misses"`
	Computations int64  `json:"computations" yaml:"computations"`
	Entries      int    `json:"entries" yaml:"entries"`
	Epoch        uint64 `json:"epoch" yaml:"epoch"`
}

// ComputeFunc produces the value of a key. It runs with the context of the
// caller that triggered it.
type ComputeFunc[V any] func(ctx context.Context) (V, error)

type entry[V any] struct {
	value V
	err   error
}

// Cache stores one value or failure per key. A failure is cached like a
// value; a computation abandoned through context cancellation is not.
type Cache[V any] struct {
	store *gocache.Cache
	group singleflight.Group
	epoch atomic.Uint64
	// mu orders stores against Invalidate: an entry is added only while
	// its epoch is current.
	mu sync.RWMutex

	hits         atomic.Int64
	misses       atomic.Int64
	computations atomic.Int64

	log *zap.Logger
}

// New creates a cache. A ttl of 0 keeps entries until Invalidate.
func New[V any](ttl time.Duration) *Cache[V] {
	expiration, cleanup := gocache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, ttl
	}
	return &Cache[V]{
		store: gocache.New(expiration, cleanup),
		log:   zap.L().With(zap.String("component", "cache")),
	}
}

// GetOrCompute returns the entry for key, running fn if there is none.
// Concurrent callers for the same key share one execution of fn. If the
// caller whose context runs fn gives up, the others retry under their own
// contexts.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key Key, fn ComputeFunc[V]) (V, error) {
	var zero V
	missed := false

	for {
		if err := ctx.Err(); err != nil {
			return zero, eris.Wrapf(err, "cache: get %s", key)
		}

		epoch := c.epoch.Load()
		sk := storeKey(epoch, key)
		if e, ok := c.lookup(sk); ok {
			if !missed {
				c.hits.Add(1)
			}
			return e.value, e.err
		}
		if !missed {
			missed = true
			c.misses.Add(1)
		}

		ch := c.group.DoChan(sk, func() (any, error) {
			return c.compute(ctx, epoch, sk, fn)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				if ctx.Err() != nil {
					return zero, eris.Wrapf(ctx.Err(), "cache: get %s", key)
				}
				c.log.Debug("shared computation abandoned, retrying", zap.String("key", key.String()))
				continue
			}
			e := res.Val.(entry[V])
			return e.value, e.err
		case <-ctx.Done():
			return zero, eris.Wrapf(ctx.Err(), "cache: get %s", key)
		}
	}
}

// compute runs under the singleflight lock for sk. A returned error means the
// computation was abandoned and nothing was stored.
func (c *Cache[V]) compute(ctx context.Context, epoch uint64, sk string, fn ComputeFunc[V]) (any, error) {
	if e, ok := c.lookup(sk); ok {
		return e, nil
	}

	c.computations.Add(1)
	v, err := fn(ctx)
	if err != nil && (ctx.Err() != nil || resilience.IsCanceled(err)) {
		return nil, err
	}

	e := entry[V]{value: v, err: err}
	if existing, ok := c.put(epoch, sk, e); ok {
		return existing, nil
	}
	return e, nil
}

// put adds e under sk unless the cache was invalidated since epoch.
// It returns the entry already present when another computation won.
func (c *Cache[V]) put(epoch uint64, sk string, e entry[V]) (entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.epoch.Load() != epoch {
		// Invalidated mid-flight: hand the result to current waiters only.
		return entry[V]{}, false
	}
	if err := c.store.Add(sk, e, gocache.DefaultExpiration); err != nil {
		return c.lookup(sk)
	}
	return entry[V]{}, false
}

func (c *Cache[V]) lookup(sk string) (entry[V], bool) {
	v, ok := c.store.Get(sk)
	if !ok {
		return entry[V]{}, false
	}
	return v.(entry[V]), true
}

// Invalidate drops every entry. Computations in flight finish but their
// results are not stored.
func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	epoch := c.epoch.Add(1)
	c.store.Flush()
	c.mu.Unlock()
	c.log.Info("cache invalidated", zap.Uint64("epoch", epoch))
}

// Stats returns the current counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
		Entries:      c.store.ItemCount(),
		Epoch:        c.epoch.Load(),
	}
}

func storeKey(epoch uint64, key Key) string {
	return fmt.Sprintf("%d|%s", epoch, key)
}
