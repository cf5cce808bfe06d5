package cache

import (
	"context"
	"sync"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
)

// Store is the registry's view of a cache instance.
type Store interface {
	Name() string
	Sweep() int
	Len() int
}

// Registry owns the process's cache instances. All members share one TTL and
// are swept together by the background sweeper. Construct it once at startup
// and pass it down explicitly; nothing in this package is a global.
type Registry struct {
	ttl time.Duration

	mu     sync.Mutex
	stores []Store
}

// NewRegistry creates an empty registry whose members will share ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{ttl: ttl}
}

// TTL returns the shared time-to-live.
func (r *Registry) TTL() time.Duration { return r.ttl }

// NewIn creates a cache with the registry's TTL and registers it for sweeping.
func NewIn[V any](r *Registry, name string) *Expiring[V] {
	c := New[V](name, r.ttl)
	r.mu.Lock()
	r.stores = append(r.stores, c)
	r.mu.Unlock()
	return c
}

// SweepAll sweeps every registered cache and returns removal counts by name.
func (r *Registry) SweepAll() map[string]int {
	r.mu.Lock()
	stores := make([]Store, len(r.stores))
	copy(stores, r.stores)
	r.mu.Unlock()

	removed := make(map[string]int, len(stores))
	for _, s := range stores {
		removed[s.Name()] = s.Sweep()
	}
	return removed
}

// Stats returns the current entry count of every registered cache.
func (r *Registry) Stats() map[string]int {
	r.mu.Lock()
	stores := make([]Store, len(r.stores))
	copy(stores, r.stores)
	r.mu.Unlock()

	sizes := make(map[string]int, len(stores))
	for _, s := range stores {
		sizes[s.Name()] = s.Len()
	}
	return sizes
}

// StartSweeper runs the periodic sweep loop until ctx is cancelled.
// It blocks; run it on its own goroutine.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	log := logger.WithComponent("cache_sweeper")
	log.Info("Starting cache sweeper", "interval", interval, "ttl", r.ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Cache sweeper stopped")
			return
		case <-ticker.C:
			removed := r.SweepAll()
			log.Info("Cache sweep complete",
				"removed", removed,
				"remaining", r.Stats())
		}
	}
}
