package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is the current market price for a (crop, region) pair. The pair is
// unique: upserts shift the current price into PreviousPrice rather than
// creating a second row. UpdatedBy is nil for system (sync) updates.
type Price struct {
	ID            int64
	CropID        int64
	RegionID      int64
	Price         decimal.Decimal
	PreviousPrice *decimal.Decimal
	Unit          string
	UpdatedAt     time.Time
	UpdatedBy     *int64
}

// PriceWithNames is a Price joined with its crop and region display names,
// as returned by the read path and the fluctuation generator.
type PriceWithNames struct {
	Price
	CropName   string
	RegionName string
}

// PriceFilter narrows a price listing. Name and ID filters may be combined;
// zero values mean "no filter".
type PriceFilter struct {
	Crop     string
	CropID   int64
	Region   string
	RegionID int64
}

// IsZero reports whether no filter fields are set.
func (f PriceFilter) IsZero() bool {
	return f.Crop == "" && f.CropID == 0 && f.Region == "" && f.RegionID == 0
}

// PriceHistoryEntry is an append-only record of a price written during a
// sync run, kept for trend display and archived to object storage over time.
type PriceHistoryEntry struct {
	ID         int64
	CropID     int64
	RegionID   int64
	Price      decimal.Decimal
	Source     SyncSource
	RecordedAt time.Time
}
