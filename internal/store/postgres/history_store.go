package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dondie52/agriconnect/internal/domain"
)

// PriceHistoryStore implements domain.PriceHistoryStore using PostgreSQL.
type PriceHistoryStore struct {
	pool *pgxpool.Pool
}

// NewPriceHistoryStore creates a new PriceHistoryStore backed by the given
// connection pool.
func NewPriceHistoryStore(pool *pgxpool.Pool) *PriceHistoryStore {
	return &PriceHistoryStore{pool: pool}
}

// Insert appends one history entry.
func (s *PriceHistoryStore) Insert(ctx context.Context, e domain.PriceHistoryEntry) error {
	const query = `
		INSERT INTO price_history (crop_id, region_id, price, source, recorded_at)
		VALUES ($1, $2, $3, $4, $5)`

	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, query,
		e.CropID, e.RegionID, e.Price, string(e.Source), recordedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert price history crop=%d region=%d: %w", e.CropID, e.RegionID, err)
	}
	return nil
}

// ListBefore returns up to limit history entries recorded before the cutoff,
// oldest first. It is used by the archiver to page through exportable rows.
func (s *PriceHistoryStore) ListBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.PriceHistoryEntry, error) {
	const query = `
		SELECT id, crop_id, region_id, price, source, recorded_at
		FROM price_history
		WHERE recorded_at < $1
		ORDER BY recorded_at
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list price history before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var entries []domain.PriceHistoryEntry
	for rows.Next() {
		var e domain.PriceHistoryEntry
		var source string
		if err := rows.Scan(&e.ID, &e.CropID, &e.RegionID, &e.Price, &source, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan price history: %w", err)
		}
		e.Source = domain.SyncSource(source)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list price history: %w", err)
	}
	return entries, nil
}

// DeleteBefore removes history entries recorded before the cutoff and returns
// the number of rows deleted.
func (s *PriceHistoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM price_history WHERE recorded_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete price history before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.PriceHistoryStore = (*PriceHistoryStore)(nil)
