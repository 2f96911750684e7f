package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dondie52/agriconnect/internal/domain"
	"github.com/dondie52/agriconnect/internal/notify"
	"github.com/dondie52/agriconnect/internal/platform/amis"
)

// PriceFetcher retrieves rows from the external feed. A (nil, nil) return
// means the source is unavailable and the fallback path should run.
type PriceFetcher interface {
	FetchPrices(ctx context.Context) ([]amis.ExternalPrice, error)
}

// RowGenerator produces fallback price rows from stored prices.
type RowGenerator interface {
	Generate(ctx context.Context) ([]domain.PriceRow, error)
}

// Alerter evaluates a price swing and fans out farmer notifications.
type Alerter interface {
	CheckPriceAlerts(ctx context.Context, cropID, regionID int64, oldPrice, newPrice decimal.Decimal, cropName, regionName string) (int, error)
}

// Orchestrator runs the market-price sync: fetch-or-fallback, per-row upsert
// with error isolation, alert evaluation, cache invalidation, and best-effort
// broadcast. Its public contract never fails: callers always get a stats
// object and inspect Errors for degraded runs.
type Orchestrator struct {
	crops       domain.CropStore
	regions     domain.RegionStore
	prices      domain.PriceStore
	history     domain.PriceHistoryStore
	fetcher     PriceFetcher
	fallback    RowGenerator
	mapper      *Mapper
	alerts      Alerter
	cache       domain.PriceCache
	broadcaster domain.Broadcaster // may be nil
	ops         *notify.Notifier   // may be nil
	logger      *slog.Logger

	// inFlight guards against overlapping runs: a second concurrent call is
	// skipped, not queued.
	inFlight atomic.Bool
}

// OrchestratorDeps bundles the orchestrator's collaborators. History,
// Broadcaster, and Ops are optional.
type OrchestratorDeps struct {
	Crops       domain.CropStore
	Regions     domain.RegionStore
	Prices      domain.PriceStore
	History     domain.PriceHistoryStore
	Fetcher     PriceFetcher
	Fallback    RowGenerator
	Mapper      *Mapper
	Alerts      Alerter
	Cache       domain.PriceCache
	Broadcaster domain.Broadcaster
	Ops         *notify.Notifier
}

// NewOrchestrator creates a sync orchestrator.
func NewOrchestrator(deps OrchestratorDeps, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		crops:       deps.Crops,
		regions:     deps.Regions,
		prices:      deps.Prices,
		history:     deps.History,
		fetcher:     deps.Fetcher,
		fallback:    deps.Fallback,
		mapper:      deps.Mapper,
		alerts:      deps.Alerts,
		cache:       deps.Cache,
		broadcaster: deps.Broadcaster,
		ops:         deps.Ops,
		logger:      logger.With(slog.String("component", "sync")),
	}
}

// SyncMarketPrices executes one sync run and returns its stats. It never
// returns an error: per-row failures are isolated into the stats error list,
// and a fatal failure is recorded under a "fatal: " prefixed message with
// whatever partial counts exist.
func (o *Orchestrator) SyncMarketPrices(ctx context.Context) domain.SyncStats {
	stats := domain.SyncStats{StartedAt: time.Now().UTC()}

	if !o.inFlight.CompareAndSwap(false, true) {
		o.logger.WarnContext(ctx, "sync skipped, another run is in progress")
		stats.Errors = append(stats.Errors, domain.SyncError{Message: domain.ErrSyncInProgress.Error()})
		stats.FinishedAt = time.Now().UTC()
		return stats
	}
	defer o.inFlight.Store(false)

	o.logger.InfoContext(ctx, "market price sync started")

	cropIndex, cropNames, err := o.loadCropIndex(ctx)
	if err != nil {
		return o.fatal(ctx, stats, err)
	}
	regionIndex, regionNames, err := o.loadRegionIndex(ctx)
	if err != nil {
		return o.fatal(ctx, stats, err)
	}

	rows, source, err := o.collectRows(ctx, cropIndex, regionIndex)
	if err != nil {
		return o.fatal(ctx, stats, err)
	}
	stats.Source = source

	for _, row := range rows {
		o.processRow(ctx, row, cropNames, regionNames, source, &stats)
	}

	// Invalidation and the last-sync timestamp happen exactly once per run,
	// after every row has been attempted, however many rows failed.
	o.cache.InvalidateAll(ctx)
	now := time.Now().UTC()
	o.cache.SetLastSyncTime(ctx, now)

	o.broadcast(ctx, stats)

	stats.FinishedAt = time.Now().UTC()
	o.logger.InfoContext(ctx, "market price sync finished",
		slog.String("source", string(stats.Source)),
		slog.Int("updated", stats.PricesUpdated),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("alerts", stats.AlertsSent),
		slog.Int("errors", len(stats.Errors)),
		slog.Duration("took", stats.FinishedAt.Sub(stats.StartedAt)),
	)

	o.notifyOps(ctx, stats)
	return stats
}

// collectRows selects the source: external rows when the feed responds,
// locally generated fluctuation rows otherwise.
func (o *Orchestrator) collectRows(ctx context.Context, cropIndex, regionIndex map[string]int64) ([]domain.PriceRow, domain.SyncSource, error) {
	external, err := o.fetcher.FetchPrices(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("fetch external prices: %w", err)
	}
	if len(external) > 0 {
		rows := o.mapper.Map(external, cropIndex, regionIndex)
		o.logger.InfoContext(ctx, "using external price source",
			slog.Int("external_rows", len(external)),
			slog.Int("mapped_rows", len(rows)),
		)
		return rows, domain.SourceExternalAPI, nil
	}

	rows, err := o.fallback.Generate(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("generate fallback rows: %w", err)
	}
	o.logger.InfoContext(ctx, "external source unavailable, using market fluctuation",
		slog.Int("rows", len(rows)),
	)
	return rows, domain.SourceFluctuation, nil
}

// processRow handles a single row in isolation: any failure is recorded in
// the stats error list and the remaining rows still run.
func (o *Orchestrator) processRow(
	ctx context.Context,
	row domain.PriceRow,
	cropNames, regionNames map[int64]string,
	source domain.SyncSource,
	stats *domain.SyncStats,
) {
	oldPrice := row.OldPrice
	if oldPrice == nil {
		existing, err := o.prices.Get(ctx, row.CropID, row.RegionID)
		switch {
		case err == nil:
			p := existing.Price
			oldPrice = &p
		case errors.Is(err, domain.ErrNotFound):
			// First price for this pair.
		default:
			o.rowError(ctx, stats, row, err)
			return
		}
	}

	if err := o.prices.Upsert(ctx, row, nil); err != nil {
		o.rowError(ctx, stats, row, err)
		return
	}

	if oldPrice != nil && row.Price.Equal(*oldPrice) {
		stats.Unchanged++
	} else {
		stats.PricesUpdated++
	}

	if o.history != nil {
		err := o.history.Insert(ctx, domain.PriceHistoryEntry{
			CropID:   row.CropID,
			RegionID: row.RegionID,
			Price:    row.Price,
			Source:   source,
		})
		if err != nil {
			o.logger.WarnContext(ctx, "price history insert failed",
				slog.Int64("crop_id", row.CropID),
				slog.Int64("region_id", row.RegionID),
				slog.String("error", err.Error()),
			)
		}
	}

	if oldPrice == nil || oldPrice.LessThanOrEqual(decimal.Zero) {
		return
	}

	cropName := row.CropName
	if cropName == "" {
		cropName = cropNames[row.CropID]
	}
	regionName := row.RegionName
	if regionName == "" {
		regionName = regionNames[row.RegionID]
	}

	sent, err := o.alerts.CheckPriceAlerts(ctx, row.CropID, row.RegionID, *oldPrice, row.Price, cropName, regionName)
	if err != nil {
		o.rowError(ctx, stats, row, err)
		return
	}
	stats.AlertsSent += sent
}

func (o *Orchestrator) rowError(ctx context.Context, stats *domain.SyncStats, row domain.PriceRow, err error) {
	o.logger.ErrorContext(ctx, "sync row failed",
		slog.Int64("crop_id", row.CropID),
		slog.Int64("region_id", row.RegionID),
		slog.String("error", err.Error()),
	)
	stats.Errors = append(stats.Errors, domain.SyncError{
		CropID:   row.CropID,
		RegionID: row.RegionID,
		Message:  err.Error(),
	})
}

func (o *Orchestrator) fatal(ctx context.Context, stats domain.SyncStats, err error) domain.SyncStats {
	o.logger.ErrorContext(ctx, "sync failed fatally", slog.String("error", err.Error()))
	stats.Errors = append(stats.Errors, domain.SyncError{Message: "fatal: " + err.Error()})
	stats.FinishedAt = time.Now().UTC()
	o.notifyOps(ctx, stats)
	return stats
}

// broadcast pushes the freshly-synced price list to live listeners. This is
// a side effect, not part of the sync contract: any failure is logged only.
func (o *Orchestrator) broadcast(ctx context.Context, stats domain.SyncStats) {
	if o.broadcaster == nil {
		return
	}

	fresh, err := o.prices.List(ctx, domain.PriceFilter{})
	if err != nil {
		o.logger.WarnContext(ctx, "broadcast skipped, price read failed", slog.String("error", err.Error()))
		return
	}
	if err := o.broadcaster.BroadcastPrices(ctx, fresh, stats); err != nil {
		o.logger.WarnContext(ctx, "price broadcast failed", slog.String("error", err.Error()))
	}
}

// notifyOps tells the operator channels about degraded runs: fallback-sourced
// syncs and runs with errors. Best-effort.
func (o *Orchestrator) notifyOps(ctx context.Context, stats domain.SyncStats) {
	if o.ops == nil {
		return
	}

	var event, title string
	switch {
	case len(stats.Errors) > 0:
		event, title = "sync_errors", "Price sync completed with errors"
	case stats.Source == domain.SourceFluctuation:
		event, title = "sync_degraded", "Price sync fell back to market fluctuation"
	default:
		return
	}

	var msgs []string
	msgs = append(msgs, fmt.Sprintf("source=%s updated=%d unchanged=%d alerts=%d errors=%d",
		stats.Source, stats.PricesUpdated, stats.Unchanged, stats.AlertsSent, len(stats.Errors)))
	for i, e := range stats.Errors {
		if i == 5 {
			msgs = append(msgs, fmt.Sprintf("... and %d more", len(stats.Errors)-i))
			break
		}
		msgs = append(msgs, e.Message)
	}

	if err := o.ops.Notify(ctx, event, title, strings.Join(msgs, "\n")); err != nil {
		o.logger.WarnContext(ctx, "ops notification failed", slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) loadCropIndex(ctx context.Context) (map[string]int64, map[int64]string, error) {
	crops, err := o.crops.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load crops: %w", err)
	}
	byName := make(map[string]int64, len(crops))
	byID := make(map[int64]string, len(crops))
	for _, c := range crops {
		byName[strings.ToLower(c.Name)] = c.ID
		byID[c.ID] = c.Name
	}
	return byName, byID, nil
}

func (o *Orchestrator) loadRegionIndex(ctx context.Context) (map[string]int64, map[int64]string, error) {
	regions, err := o.regions.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load regions: %w", err)
	}
	byName := make(map[string]int64, len(regions))
	byID := make(map[int64]string, len(regions))
	for _, r := range regions {
		byName[strings.ToLower(r.Name)] = r.ID
		byID[r.ID] = r.Name
	}
	return byName, byID, nil
}
