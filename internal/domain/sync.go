package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncSource identifies where a sync run's price rows came from.
type SyncSource string

const (
	// SourceExternalAPI means rows were fetched from the external price feed.
	SourceExternalAPI SyncSource = "external-api"
	// SourceFluctuation means rows were generated locally because the
	// external feed was unavailable.
	SourceFluctuation SyncSource = "market-fluctuation"
)

// PriceRow is one unit of work for the sync orchestrator: a resolved
// (crop, region) pair with its new price. OldPrice and the display names are
// carried on the fallback path and looked up on the external path.
type PriceRow struct {
	CropID     int64
	RegionID   int64
	Price      decimal.Decimal
	Unit       string
	CropName   string
	RegionName string
	OldPrice   *decimal.Decimal
}

// SyncError is a per-row failure recorded in the run stats. A fatal failure
// of the run itself is recorded with zero IDs and a "fatal: " message prefix.
type SyncError struct {
	CropID   int64  `json:"crop_id"`
	RegionID int64  `json:"region_id"`
	Message  string `json:"error"`
}

// SyncStats summarises one sync run. It is ephemeral: returned to the caller
// and logged, never persisted.
type SyncStats struct {
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
	PricesUpdated int         `json:"prices_updated"`
	Unchanged     int         `json:"unchanged"`
	AlertsSent    int         `json:"alerts_sent"`
	Source        SyncSource  `json:"source"`
	Errors        []SyncError `json:"errors"`
}
