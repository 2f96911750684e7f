package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dondie52/agriconnect/internal/domain"
)

// ObjectWriter uploads a single object to blob storage.
type ObjectWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// archiveBatchSize caps the rows exported per object so a long backlog is
// drained in bounded pieces.
const archiveBatchSize = 5000

// Archiver exports old price-history rows to object storage and prunes them
// from PostgreSQL. It is supplemental to sync: failures are logged and the
// rows are retried on the next cycle.
type Archiver struct {
	history   domain.PriceHistoryStore
	writer    ObjectWriter
	retention time.Duration
	logger    *slog.Logger
}

// NewArchiver creates an Archiver keeping retention worth of history in the
// database.
func NewArchiver(history domain.PriceHistoryStore, writer ObjectWriter, retention time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		history:   history,
		writer:    writer,
		retention: retention,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

type archivedEntry struct {
	ID         int64  `json:"id"`
	CropID     int64  `json:"crop_id"`
	RegionID   int64  `json:"region_id"`
	Price      string `json:"price"`
	Source     string `json:"source"`
	RecordedAt string `json:"recorded_at"`
}

type archiveObject struct {
	ExportedAt string          `json:"exported_at"`
	Cutoff     string          `json:"cutoff"`
	Entries    []archivedEntry `json:"entries"`
}

// Run exports every history row older than the retention cutoff, in batches
// of one object each, then deletes the exported rows. It returns the total
// number of rows archived.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-a.retention)
	total := 0

	for {
		entries, err := a.history.ListBefore(ctx, cutoff, archiveBatchSize)
		if err != nil {
			return total, fmt.Errorf("pipeline: list archivable history: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		obj := archiveObject{
			ExportedAt: time.Now().UTC().Format(time.RFC3339),
			Cutoff:     cutoff.Format(time.RFC3339),
			Entries:    make([]archivedEntry, 0, len(entries)),
		}
		for _, e := range entries {
			obj.Entries = append(obj.Entries, archivedEntry{
				ID:         e.ID,
				CropID:     e.CropID,
				RegionID:   e.RegionID,
				Price:      e.Price.String(),
				Source:     string(e.Source),
				RecordedAt: e.RecordedAt.UTC().Format(time.RFC3339),
			})
		}

		data, err := json.Marshal(obj)
		if err != nil {
			return total, fmt.Errorf("pipeline: marshal archive object: %w", err)
		}

		now := time.Now().UTC()
		path := fmt.Sprintf("history/%04d/%02d/price-history-%d.json", now.Year(), now.Month(), now.UnixNano())
		if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
			return total, fmt.Errorf("pipeline: upload archive %s: %w", path, err)
		}

		// Only delete up to the last exported row so rows written between
		// the list and here survive for the next batch.
		last := entries[len(entries)-1].RecordedAt.Add(time.Nanosecond)
		deleted, err := a.history.DeleteBefore(ctx, last)
		if err != nil {
			return total, fmt.Errorf("pipeline: prune archived history: %w", err)
		}

		total += len(entries)
		a.logger.InfoContext(ctx, "history batch archived",
			slog.String("object", path),
			slog.Int("rows", len(entries)),
			slog.Int64("deleted", deleted),
		)

		if len(entries) < archiveBatchSize {
			break
		}
	}

	return total, nil
}

// RunLoop runs an archive cycle immediately and then once per interval until
// the context is cancelled. Cycle failures are logged; the loop continues.
func (a *Archiver) RunLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := a.Run(ctx); err != nil {
			a.logger.ErrorContext(ctx, "archive cycle failed", slog.String("error", err.Error()))
		} else if n > 0 {
			a.logger.InfoContext(ctx, "archive cycle finished", slog.Int("rows", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
