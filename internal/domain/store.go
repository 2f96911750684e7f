package domain

import (
	"context"
	"time"
)

// CropStore reads crop reference data.
type CropStore interface {
	List(ctx context.Context) ([]Crop, error)
	GetByID(ctx context.Context, id int64) (Crop, error)
}

// RegionStore reads region reference data.
type RegionStore interface {
	List(ctx context.Context) ([]Region, error)
	GetByID(ctx context.Context, id int64) (Region, error)
}

// PriceStore persists market prices keyed by (crop, region).
type PriceStore interface {
	// Upsert writes the new price for the pair, shifting the prior current
	// price into previous_price. updatedBy is nil for system updates.
	Upsert(ctx context.Context, row PriceRow, updatedBy *int64) error
	Get(ctx context.Context, cropID, regionID int64) (Price, error)
	// List returns prices joined with crop and region names, filtered and
	// ordered by crop then region name.
	List(ctx context.Context, filter PriceFilter) ([]PriceWithNames, error)
}

// PriceHistoryStore persists the append-only sync price log.
type PriceHistoryStore interface {
	Insert(ctx context.Context, entry PriceHistoryEntry) error
	ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]PriceHistoryEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserStore reads marketplace accounts.
type UserStore interface {
	ListActiveFarmers(ctx context.Context) ([]User, error)
}

// NotificationStore persists user notifications.
type NotificationStore interface {
	Create(ctx context.Context, n Notification) error
	// CreateBatch persists many notifications in one round trip; it is the
	// bulk path used by alert fan-out.
	CreateBatch(ctx context.Context, ns []Notification) error
}
