package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dondie52/agriconnect/internal/domain"
	"github.com/dondie52/agriconnect/internal/platform/amis"
)

type fakeCropStore struct {
	crops []domain.Crop
	err   error
}

func (s *fakeCropStore) List(context.Context) ([]domain.Crop, error) {
	return s.crops, s.err
}

func (s *fakeCropStore) GetByID(_ context.Context, id int64) (domain.Crop, error) {
	for _, c := range s.crops {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Crop{}, domain.ErrNotFound
}

type fakeRegionStore struct {
	regions []domain.Region
	err     error
}

func (s *fakeRegionStore) List(context.Context) ([]domain.Region, error) {
	return s.regions, s.err
}

func (s *fakeRegionStore) GetByID(_ context.Context, id int64) (domain.Region, error) {
	for _, r := range s.regions {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.Region{}, domain.ErrNotFound
}

func pairKey(cropID, regionID int64) string {
	return fmt.Sprintf("%d/%d", cropID, regionID)
}

// fakePriceStore mimics the upsert semantics of the real store, including
// previous-price shifting.
type fakePriceStore struct {
	mu         sync.Mutex
	rows       map[string]*domain.PriceWithNames
	failUpsert map[string]error
	listErr    error
}

func newFakePriceStore() *fakePriceStore {
	return &fakePriceStore{
		rows:       make(map[string]*domain.PriceWithNames),
		failUpsert: make(map[string]error),
	}
}

func (s *fakePriceStore) seed(cropID, regionID int64, cropName, regionName string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[pairKey(cropID, regionID)] = &domain.PriceWithNames{
		Price: domain.Price{
			CropID:    cropID,
			RegionID:  regionID,
			Price:     price,
			Unit:      "kg",
			UpdatedAt: time.Now().UTC(),
		},
		CropName:   cropName,
		RegionName: regionName,
	}
}

func (s *fakePriceStore) Upsert(_ context.Context, row domain.PriceRow, updatedBy *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(row.CropID, row.RegionID)
	if err := s.failUpsert[key]; err != nil {
		return err
	}

	if existing, ok := s.rows[key]; ok {
		prev := existing.Price.Price
		existing.PreviousPrice = &prev
		existing.Price.Price = row.Price
		existing.Unit = row.Unit
		existing.UpdatedAt = time.Now().UTC()
		existing.UpdatedBy = updatedBy
		return nil
	}

	s.rows[key] = &domain.PriceWithNames{
		Price: domain.Price{
			CropID:    row.CropID,
			RegionID:  row.RegionID,
			Price:     row.Price,
			Unit:      row.Unit,
			UpdatedAt: time.Now().UTC(),
			UpdatedBy: updatedBy,
		},
		CropName:   row.CropName,
		RegionName: row.RegionName,
	}
	return nil
}

func (s *fakePriceStore) Get(_ context.Context, cropID, regionID int64) (domain.Price, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[pairKey(cropID, regionID)]; ok {
		return row.Price, nil
	}
	return domain.Price{}, domain.ErrNotFound
}

func (s *fakePriceStore) List(_ context.Context, _ domain.PriceFilter) ([]domain.PriceWithNames, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}

	out := make([]domain.PriceWithNames, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CropName != out[j].CropName {
			return out[i].CropName < out[j].CropName
		}
		return out[i].RegionName < out[j].RegionName
	})
	return out, nil
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	entries []domain.PriceHistoryEntry
}

func (s *fakeHistoryStore) Insert(_ context.Context, e domain.PriceHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = int64(len(s.entries) + 1)
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *fakeHistoryStore) ListBefore(_ context.Context, cutoff time.Time, limit int) ([]domain.PriceHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.PriceHistoryEntry
	for _, e := range s.entries {
		if e.RecordedAt.Before(cutoff) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeHistoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []domain.PriceHistoryEntry
	var deleted int64
	for _, e := range s.entries {
		if e.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return deleted, nil
}

type fakeUserStore struct {
	farmers []domain.User
	err     error
}

func (s *fakeUserStore) ListActiveFarmers(context.Context) ([]domain.User, error) {
	return s.farmers, s.err
}

type fakeNotificationStore struct {
	mu      sync.Mutex
	created []domain.Notification
	batches int
	err     error
}

func (s *fakeNotificationStore) Create(_ context.Context, n domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, n)
	return nil
}

func (s *fakeNotificationStore) CreateBatch(_ context.Context, ns []domain.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, ns...)
	s.batches++
	return nil
}

type fakeFetcher struct {
	rows  []amis.ExternalPrice
	err   error
	calls int
}

func (f *fakeFetcher) FetchPrices(context.Context) ([]amis.ExternalPrice, error) {
	f.calls++
	return f.rows, f.err
}

// spyCache records invalidation and last-sync calls in order.
type spyCache struct {
	mu             sync.Mutex
	invalidateAlls int
	lastSync       time.Time
	calls          []string
}

func (c *spyCache) Get(context.Context, domain.PriceFilter) (domain.CachedPrices, bool) {
	return domain.CachedPrices{}, false
}

func (c *spyCache) Set(context.Context, domain.PriceFilter, []domain.PriceWithNames) {}

func (c *spyCache) Invalidate(context.Context, domain.PriceFilter) {}

func (c *spyCache) InvalidateAll(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateAlls++
	c.calls = append(c.calls, "invalidate_all")
}

func (c *spyCache) SetLastSyncTime(_ context.Context, t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSync = t
	c.calls = append(c.calls, "set_last_sync")
}

func (c *spyCache) LastSyncTime(context.Context) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSync, !c.lastSync.IsZero()
}

func (c *spyCache) Stats(context.Context) domain.CacheStats {
	return domain.CacheStats{}
}

type fakeBroadcaster struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (b *fakeBroadcaster) BroadcastPrices(context.Context, []domain.PriceWithNames, domain.SyncStats) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return b.err
}
