// Package service contains the application services between the HTTP layer
// and the stores/caches.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dondie52/agriconnect/internal/domain"
)

// PriceService is the read path for market prices: cache-first with a store
// fallback that repopulates the cache on miss.
type PriceService struct {
	prices domain.PriceStore
	cache  domain.PriceCache
	logger *slog.Logger
}

// NewPriceService creates a PriceService.
func NewPriceService(prices domain.PriceStore, cache domain.PriceCache, logger *slog.Logger) *PriceService {
	return &PriceService{
		prices: prices,
		cache:  cache,
		logger: logger.With(slog.String("component", "price_service")),
	}
}

// PriceListing is a price read result with its cache metadata. LastSync is
// nil until the first sync since process start completes.
type PriceListing struct {
	Data     []domain.PriceWithNames
	Cached   bool
	CachedAt *time.Time
	LastSync *time.Time
}

// GetPrices returns prices matching the filter, serving from the cache when
// possible and falling back to the store on a miss. The lastSync metadata is
// attached in both cases so consumers know how fresh the data is.
func (s *PriceService) GetPrices(ctx context.Context, filter domain.PriceFilter) (PriceListing, error) {
	listing := PriceListing{}
	if t, ok := s.cache.LastSyncTime(ctx); ok {
		listing.LastSync = &t
	}

	if hit, ok := s.cache.Get(ctx, filter); ok {
		listing.Data = hit.Data
		listing.Cached = true
		cachedAt := hit.CachedAt
		listing.CachedAt = &cachedAt
		return listing, nil
	}

	data, err := s.prices.List(ctx, filter)
	if err != nil {
		return PriceListing{}, fmt.Errorf("price_service: list prices: %w", err)
	}

	s.cache.Set(ctx, filter, data)
	listing.Data = data
	return listing, nil
}

// SyncStatus is the admin-facing view of sync health.
type SyncStatus struct {
	LastSync *time.Time        `json:"last_sync"`
	Cache    domain.CacheStats `json:"cache"`
}

// GetSyncStatus reports the last completed sync time and cache statistics.
func (s *PriceService) GetSyncStatus(ctx context.Context) SyncStatus {
	status := SyncStatus{Cache: s.cache.Stats(ctx)}
	if t, ok := s.cache.LastSyncTime(ctx); ok {
		status.LastSync = &t
	}
	return status
}
