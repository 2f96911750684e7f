package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/dondie52/agriconnect/internal/cache"
	"github.com/dondie52/agriconnect/internal/domain"
)

const (
	keyPrefix   = "agri:prices:"
	lastSyncKey = "agri:prices:last_sync"
)

// PriceCache implements domain.PriceCache on Redis. Entries are JSON values
// under "agri:prices:<canonical-key>" with a server-side TTL, so expiry needs
// no lazy eviction on this backend. Since the domain cache contract treats
// every failure as a miss, Redis errors are logged and swallowed here.
type PriceCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPriceCache creates a PriceCache backed by the given Client.
func NewPriceCache(c *Client, ttl time.Duration, logger *slog.Logger) *PriceCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PriceCache{
		rdb:    c.Underlying(),
		ttl:    ttl,
		logger: logger.With(slog.String("component", "redis_price_cache")),
	}
}

// cachedRow is the wire form of one price row. Decimals are serialized as
// strings to survive the JSON round trip exactly.
type cachedRow struct {
	ID            int64   `json:"id"`
	CropID        int64   `json:"crop_id"`
	RegionID      int64   `json:"region_id"`
	Price         string  `json:"price"`
	PreviousPrice *string `json:"previous_price"`
	Unit          string  `json:"unit"`
	UpdatedAt     string  `json:"updated_at"`
	UpdatedBy     *int64  `json:"updated_by"`
	CropName      string  `json:"crop_name"`
	RegionName    string  `json:"region_name"`
}

type cachedEntry struct {
	Rows     []cachedRow `json:"rows"`
	CachedAt string      `json:"cached_at"`
}

// Get returns the cached rows for the filter, or ok=false on a miss or any
// Redis/decode failure.
func (pc *PriceCache) Get(ctx context.Context, filter domain.PriceFilter) (domain.CachedPrices, bool) {
	raw, err := pc.rdb.Get(ctx, keyPrefix+cache.Key(filter)).Bytes()
	if err == redis.Nil {
		return domain.CachedPrices{}, false
	}
	if err != nil {
		pc.logger.WarnContext(ctx, "cache get failed", slog.String("error", err.Error()))
		return domain.CachedPrices{}, false
	}

	var e cachedEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		pc.logger.WarnContext(ctx, "cache entry decode failed", slog.String("error", err.Error()))
		return domain.CachedPrices{}, false
	}

	cachedAt, err := time.Parse(time.RFC3339Nano, e.CachedAt)
	if err != nil {
		return domain.CachedPrices{}, false
	}

	rows := make([]domain.PriceWithNames, 0, len(e.Rows))
	for _, r := range e.Rows {
		row, err := r.toDomain()
		if err != nil {
			pc.logger.WarnContext(ctx, "cache row decode failed", slog.String("error", err.Error()))
			return domain.CachedPrices{}, false
		}
		rows = append(rows, row)
	}

	return domain.CachedPrices{Data: rows, CachedAt: cachedAt}, true
}

// Set stores rows for the filter with the configured TTL.
func (pc *PriceCache) Set(ctx context.Context, filter domain.PriceFilter, data []domain.PriceWithNames) {
	e := cachedEntry{
		Rows:     make([]cachedRow, 0, len(data)),
		CachedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, p := range data {
		e.Rows = append(e.Rows, fromDomain(p))
	}

	raw, err := json.Marshal(e)
	if err != nil {
		pc.logger.WarnContext(ctx, "cache entry encode failed", slog.String("error", err.Error()))
		return
	}

	if err := pc.rdb.Set(ctx, keyPrefix+cache.Key(filter), raw, pc.ttl).Err(); err != nil {
		pc.logger.WarnContext(ctx, "cache set failed", slog.String("error", err.Error()))
	}
}

// Invalidate removes the entry for a single filter key.
func (pc *PriceCache) Invalidate(ctx context.Context, filter domain.PriceFilter) {
	if err := pc.rdb.Del(ctx, keyPrefix+cache.Key(filter)).Err(); err != nil {
		pc.logger.WarnContext(ctx, "cache invalidate failed", slog.String("error", err.Error()))
	}
}

// InvalidateAll removes every entry under the cache prefix via SCAN. The
// last-sync key is preserved.
func (pc *PriceCache) InvalidateAll(ctx context.Context) {
	iter := pc.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if key == lastSyncKey {
			continue
		}
		if err := pc.rdb.Del(ctx, key).Err(); err != nil {
			pc.logger.WarnContext(ctx, "cache invalidate failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := iter.Err(); err != nil {
		pc.logger.WarnContext(ctx, "cache scan failed", slog.String("error", err.Error()))
	}
}

// SetLastSyncTime records when the last sync completed. The key carries no
// TTL: a stale lastSync is still meaningful metadata.
func (pc *PriceCache) SetLastSyncTime(ctx context.Context, t time.Time) {
	if err := pc.rdb.Set(ctx, lastSyncKey, t.UTC().Format(time.RFC3339Nano), 0).Err(); err != nil {
		pc.logger.WarnContext(ctx, "set last sync failed", slog.String("error", err.Error()))
	}
}

// LastSyncTime returns the last completed sync time, ok=false when unknown.
func (pc *PriceCache) LastSyncTime(ctx context.Context) (time.Time, bool) {
	raw, err := pc.rdb.Get(ctx, lastSyncKey).Result()
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Stats returns an introspection snapshot. Entries are counted with SCAN.
func (pc *PriceCache) Stats(ctx context.Context) domain.CacheStats {
	stats := domain.CacheStats{TTLMinutes: int(pc.ttl / time.Minute)}

	iter := pc.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if iter.Val() != lastSyncKey {
			stats.Entries++
		}
	}

	if t, ok := pc.LastSyncTime(ctx); ok {
		stats.LastSync = &t
	}
	return stats
}

func fromDomain(p domain.PriceWithNames) cachedRow {
	r := cachedRow{
		ID:         p.ID,
		CropID:     p.CropID,
		RegionID:   p.RegionID,
		Price:      p.Price.Price.String(),
		Unit:       p.Unit,
		UpdatedAt:  p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedBy:  p.UpdatedBy,
		CropName:   p.CropName,
		RegionName: p.RegionName,
	}
	if p.PreviousPrice != nil {
		s := p.PreviousPrice.String()
		r.PreviousPrice = &s
	}
	return r
}

func (r cachedRow) toDomain() (domain.PriceWithNames, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return domain.PriceWithNames{}, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return domain.PriceWithNames{}, err
	}

	p := domain.PriceWithNames{
		Price: domain.Price{
			ID:        r.ID,
			CropID:    r.CropID,
			RegionID:  r.RegionID,
			Price:     price,
			Unit:      r.Unit,
			UpdatedAt: updatedAt,
			UpdatedBy: r.UpdatedBy,
		},
		CropName:   r.CropName,
		RegionName: r.RegionName,
	}
	if r.PreviousPrice != nil {
		prev, err := decimal.NewFromString(*r.PreviousPrice)
		if err != nil {
			return domain.PriceWithNames{}, err
		}
		p.PreviousPrice = &prev
	}
	return p, nil
}

var _ domain.PriceCache = (*PriceCache)(nil)
