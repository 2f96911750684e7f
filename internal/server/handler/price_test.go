package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dondie52/agriconnect/internal/cache/memory"
	"github.com/dondie52/agriconnect/internal/domain"
	"github.com/dondie52/agriconnect/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubPriceStore struct {
	rows []domain.PriceWithNames
	err  error
	got  domain.PriceFilter
}

func (s *stubPriceStore) Upsert(context.Context, domain.PriceRow, *int64) error { return nil }

func (s *stubPriceStore) Get(context.Context, int64, int64) (domain.Price, error) {
	return domain.Price{}, domain.ErrNotFound
}

func (s *stubPriceStore) List(_ context.Context, filter domain.PriceFilter) ([]domain.PriceWithNames, error) {
	s.got = filter
	return s.rows, s.err
}

func newPriceHandler(store *stubPriceStore) *PriceHandler {
	svc := service.NewPriceService(store, memory.NewPriceCache(15*time.Minute), testLogger())
	return NewPriceHandler(svc, testLogger())
}

func TestListPrices(t *testing.T) {
	prev := decimal.RequireFromString("9.00")
	store := &stubPriceStore{rows: []domain.PriceWithNames{
		{
			Price: domain.Price{
				CropID:        1,
				RegionID:      2,
				Price:         decimal.RequireFromString("10.5"),
				PreviousPrice: &prev,
				Unit:          "kg",
				UpdatedAt:     time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC),
			},
			CropName:   "Maize",
			RegionName: "Francistown",
		},
	}}
	h := newPriceHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/prices?crop=maize&region_id=2", nil)
	rec := httptest.NewRecorder()
	h.ListPrices(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, domain.PriceFilter{Crop: "maize", RegionID: 2}, store.got)

	var resp struct {
		Data []struct {
			Crop          string  `json:"crop"`
			Region        string  `json:"region"`
			Price         string  `json:"price"`
			PreviousPrice *string `json:"previous_price"`
			Unit          string  `json:"unit"`
			UpdatedAt     string  `json:"updated_at"`
		} `json:"data"`
		Cached   bool    `json:"cached"`
		LastSync *string `json:"last_sync"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Maize", resp.Data[0].Crop)
	assert.Equal(t, "10.50", resp.Data[0].Price)
	require.NotNil(t, resp.Data[0].PreviousPrice)
	assert.Equal(t, "9.00", *resp.Data[0].PreviousPrice)
	assert.Equal(t, "2025-06-10T08:00:00Z", resp.Data[0].UpdatedAt)
	assert.False(t, resp.Cached)
	assert.Nil(t, resp.LastSync)
}

func TestListPricesSecondReadIsCached(t *testing.T) {
	store := &stubPriceStore{rows: []domain.PriceWithNames{
		{Price: domain.Price{CropID: 1, RegionID: 1, Price: decimal.RequireFromString("10.00")}},
	}}
	h := newPriceHandler(store)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
		rec := httptest.NewRecorder()
		h.ListPrices(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Cached bool `json:"cached"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, i == 1, resp.Cached)
	}
}

func TestListPricesStoreFailure(t *testing.T) {
	store := &stubPriceStore{err: context.DeadlineExceeded}
	h := newPriceHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
	rec := httptest.NewRecorder()
	h.ListPrices(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed to load prices", resp["error"])
}

func TestParsePriceFilterIgnoresBadIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/prices?crop_id=abc&region_id=-4", nil)
	assert.Equal(t, domain.PriceFilter{}, parsePriceFilter(req))
}
