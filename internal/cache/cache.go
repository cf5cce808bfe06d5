package cache

import (
	"sync"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/metrics"
)

// Expiring is a concurrency-safe in-memory key/value store with a fixed TTL.
//
// An entry older than the TTL is logically absent even while still in the map:
// Get evicts it lazily, and the periodic Sweep bounds memory growth between
// reads. Writes unconditionally overwrite with a fresh timestamp. There is no
// LRU or size bound; unbounded key growth between sweeps is accepted.
type Expiring[V any] struct {
	mu      sync.Mutex
	name    string
	ttl     time.Duration
	entries map[string]entry[V]
	now     func() time.Time
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// New creates an empty cache. name labels the cache in metrics and logs.
func New[V any](name string, ttl time.Duration) *Expiring[V] {
	return &Expiring[V]{
		name:    name,
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		now:     time.Now,
	}
}

// Name returns the cache's metrics label.
func (c *Expiring[V]) Name() string { return c.name }

// Get returns the cached value if present and younger than the TTL.
// A stale entry is deleted as a side effect and reported as a miss.
func (c *Expiring[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		return zero, false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		metrics.CacheMisses.WithLabelValues(c.name).Inc()
		metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
		return zero, false
	}
	metrics.CacheHits.WithLabelValues(c.name).Inc()
	return e.value, true
}

// Set inserts or overwrites the value for key with a fresh timestamp.
func (c *Expiring[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, insertedAt: c.now()}
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
}

// Sweep removes every entry whose age has reached the TTL and returns the
// number removed. Get self-heals regardless; Sweep only bounds memory.
func (c *Expiring[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(len(c.entries)))
	metrics.CacheSweepRemovals.WithLabelValues(c.name).Add(float64(removed))
	return removed
}

// Len returns the number of physically present entries, expired or not.
func (c *Expiring[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
