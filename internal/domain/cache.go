package domain

import (
	"context"
	"time"
)

// CachedPrices is a price-cache hit: the rows plus when they were cached.
type CachedPrices struct {
	Data     []PriceWithNames
	CachedAt time.Time
}

// CacheStats is the introspection snapshot exposed on ops endpoints.
type CacheStats struct {
	Entries    int        `json:"entries"`
	LastSync   *time.Time `json:"last_sync"`
	TTLMinutes int        `json:"ttl_minutes"`
}

// PriceCache is the read-path cache for price listings, keyed by filter.
// Implementations must treat entries older than the TTL as absent, and must
// keep the last-sync timestamp independent of individual entries.
type PriceCache interface {
	Get(ctx context.Context, filter PriceFilter) (CachedPrices, bool)
	Set(ctx context.Context, filter PriceFilter, data []PriceWithNames)
	Invalidate(ctx context.Context, filter PriceFilter)
	InvalidateAll(ctx context.Context)
	SetLastSyncTime(ctx context.Context, t time.Time)
	LastSyncTime(ctx context.Context) (time.Time, bool)
	Stats(ctx context.Context) CacheStats
}

// Broadcaster pushes fresh prices to live listeners after a sync run. It is
// best-effort: a nil Broadcaster or a returned error must never fail a sync.
type Broadcaster interface {
	BroadcastPrices(ctx context.Context, prices []PriceWithNames, stats SyncStats) error
}
