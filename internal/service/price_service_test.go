package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondie52/agriconnect/internal/cache/memory"
	"github.com/dondie52/agriconnect/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubPriceStore struct {
	rows  []domain.PriceWithNames
	err   error
	lists int
}

func (s *stubPriceStore) Upsert(context.Context, domain.PriceRow, *int64) error {
	return errors.New("not implemented")
}

func (s *stubPriceStore) Get(context.Context, int64, int64) (domain.Price, error) {
	return domain.Price{}, domain.ErrNotFound
}

func (s *stubPriceStore) List(context.Context, domain.PriceFilter) ([]domain.PriceWithNames, error) {
	s.lists++
	return s.rows, s.err
}

func maizeRow() domain.PriceWithNames {
	return domain.PriceWithNames{
		Price: domain.Price{
			CropID:   1,
			RegionID: 1,
			Price:    decimal.RequireFromString("10.50"),
			Unit:     "kg",
		},
		CropName:   "Maize",
		RegionName: "Gaborone",
	}
}

func TestGetPricesMissPopulatesCache(t *testing.T) {
	store := &stubPriceStore{rows: []domain.PriceWithNames{maizeRow()}}
	cache := memory.NewPriceCache(15 * time.Minute)
	svc := NewPriceService(store, cache, testLogger())
	ctx := context.Background()
	filter := domain.PriceFilter{Crop: "maize"}

	listing, err := svc.GetPrices(ctx, filter)
	require.NoError(t, err)
	assert.False(t, listing.Cached)
	assert.Nil(t, listing.CachedAt)
	require.Len(t, listing.Data, 1)

	// Second read is served from the cache without touching the store.
	listing, err = svc.GetPrices(ctx, filter)
	require.NoError(t, err)
	assert.True(t, listing.Cached)
	require.NotNil(t, listing.CachedAt)
	require.Len(t, listing.Data, 1)
	assert.Equal(t, 1, store.lists)
}

func TestGetPricesStoreError(t *testing.T) {
	store := &stubPriceStore{err: errors.New("connection refused")}
	svc := NewPriceService(store, memory.NewPriceCache(15*time.Minute), testLogger())

	_, err := svc.GetPrices(context.Background(), domain.PriceFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetPricesAttachesLastSync(t *testing.T) {
	store := &stubPriceStore{rows: []domain.PriceWithNames{maizeRow()}}
	cache := memory.NewPriceCache(15 * time.Minute)
	svc := NewPriceService(store, cache, testLogger())
	ctx := context.Background()

	listing, err := svc.GetPrices(ctx, domain.PriceFilter{})
	require.NoError(t, err)
	assert.Nil(t, listing.LastSync)

	syncTime := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	cache.SetLastSyncTime(ctx, syncTime)

	listing, err = svc.GetPrices(ctx, domain.PriceFilter{})
	require.NoError(t, err)
	require.NotNil(t, listing.LastSync)
	assert.True(t, listing.LastSync.Equal(syncTime))
}

func TestGetSyncStatus(t *testing.T) {
	cache := memory.NewPriceCache(15 * time.Minute)
	svc := NewPriceService(&stubPriceStore{}, cache, testLogger())
	ctx := context.Background()

	status := svc.GetSyncStatus(ctx)
	assert.Nil(t, status.LastSync)
	assert.Zero(t, status.Cache.Entries)
	assert.Equal(t, 15, status.Cache.TTLMinutes)

	syncTime := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	cache.SetLastSyncTime(ctx, syncTime)
	cache.Set(ctx, domain.PriceFilter{}, []domain.PriceWithNames{maizeRow()})

	status = svc.GetSyncStatus(ctx)
	require.NotNil(t, status.LastSync)
	assert.True(t, status.LastSync.Equal(syncTime))
	assert.Equal(t, 1, status.Cache.Entries)
}
