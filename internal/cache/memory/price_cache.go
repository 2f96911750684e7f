// Package memory implements domain.PriceCache as a process-local TTL cache.
// The runtime is multi-goroutine, so all state is mutex-guarded; this is a
// correctness requirement, not an optimization.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dondie52/agriconnect/internal/cache"
	"github.com/dondie52/agriconnect/internal/domain"
)

type entry struct {
	data     []domain.PriceWithNames
	cachedAt time.Time
}

// PriceCache is an in-memory TTL cache for price listings keyed by canonical
// filter strings. Stale entries are evicted lazily on the read that finds
// them. The last-sync timestamp is tracked independently of the entries.
type PriceCache struct {
	mu       sync.RWMutex
	entries  map[string]entry
	lastSync time.Time
	ttl      time.Duration
	now      func() time.Time
}

// NewPriceCache creates a PriceCache with the given TTL. A non-positive TTL
// falls back to 15 minutes.
func NewPriceCache(ttl time.Duration) *PriceCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PriceCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached rows for the filter, or ok=false on a miss. An entry
// older than the TTL counts as a miss and is evicted.
func (c *PriceCache) Get(_ context.Context, filter domain.PriceFilter) (domain.CachedPrices, bool) {
	key := cache.Key(filter)

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return domain.CachedPrices{}, false
	}

	if c.now().Sub(e.cachedAt) > c.ttl {
		c.mu.Lock()
		// Recheck under the write lock: a concurrent Set may have refreshed
		// the entry between the read and here.
		if cur, ok := c.entries[key]; ok && cur.cachedAt.Equal(e.cachedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return domain.CachedPrices{}, false
	}

	return domain.CachedPrices{Data: e.data, CachedAt: e.cachedAt}, true
}

// Set stores rows for the filter, unconditionally overwriting any prior entry.
func (c *PriceCache) Set(_ context.Context, filter domain.PriceFilter, data []domain.PriceWithNames) {
	key := cache.Key(filter)

	c.mu.Lock()
	c.entries[key] = entry{data: data, cachedAt: c.now()}
	c.mu.Unlock()
}

// Invalidate removes the entry for a single filter key.
func (c *PriceCache) Invalidate(_ context.Context, filter domain.PriceFilter) {
	c.mu.Lock()
	delete(c.entries, cache.Key(filter))
	c.mu.Unlock()
}

// InvalidateAll clears every entry. The last-sync timestamp is unaffected.
func (c *PriceCache) InvalidateAll(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// SetLastSyncTime records when the last sync completed.
func (c *PriceCache) SetLastSyncTime(_ context.Context, t time.Time) {
	c.mu.Lock()
	c.lastSync = t
	c.mu.Unlock()
}

// LastSyncTime returns the last completed sync time, ok=false if no sync has
// completed since process start.
func (c *PriceCache) LastSyncTime(_ context.Context) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync, !c.lastSync.IsZero()
}

// Stats returns an introspection snapshot for health endpoints.
func (c *PriceCache) Stats(_ context.Context) domain.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := domain.CacheStats{
		Entries:    len(c.entries),
		TTLMinutes: int(c.ttl / time.Minute),
	}
	if !c.lastSync.IsZero() {
		t := c.lastSync
		stats.LastSync = &t
	}
	return stats
}

var _ domain.PriceCache = (*PriceCache)(nil)
