package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dondie52/agriconnect/internal/domain"
)

// PriceStore implements domain.PriceStore using PostgreSQL.
type PriceStore struct {
	pool *pgxpool.Pool
}

// NewPriceStore creates a new PriceStore backed by the given connection pool.
func NewPriceStore(pool *pgxpool.Pool) *PriceStore {
	return &PriceStore{pool: pool}
}

// Upsert writes the price for a (crop, region) pair. On conflict the current
// price is shifted into previous_price before being overwritten, so the pair
// always carries exactly one generation of history.
func (s *PriceStore) Upsert(ctx context.Context, row domain.PriceRow, updatedBy *int64) error {
	const query = `
		INSERT INTO market_prices (crop_id, region_id, price, unit, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, NOW(), $5)
		ON CONFLICT (crop_id, region_id) DO UPDATE SET
			previous_price = market_prices.price,
			price          = EXCLUDED.price,
			unit           = EXCLUDED.unit,
			updated_at     = NOW(),
			updated_by     = EXCLUDED.updated_by`

	_, err := s.pool.Exec(ctx, query,
		row.CropID, row.RegionID, row.Price, row.Unit, updatedBy,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert price crop=%d region=%d: %w", row.CropID, row.RegionID, err)
	}
	return nil
}

// Get returns the price for a (crop, region) pair. It returns
// domain.ErrNotFound when no price has been recorded for the pair.
func (s *PriceStore) Get(ctx context.Context, cropID, regionID int64) (domain.Price, error) {
	const query = `
		SELECT id, crop_id, region_id, price, previous_price, unit, updated_at, updated_by
		FROM market_prices
		WHERE crop_id = $1 AND region_id = $2`

	var p domain.Price
	err := s.pool.QueryRow(ctx, query, cropID, regionID).Scan(
		&p.ID, &p.CropID, &p.RegionID, &p.Price, &p.PreviousPrice,
		&p.Unit, &p.UpdatedAt, &p.UpdatedBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Price{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Price{}, fmt.Errorf("postgres: get price crop=%d region=%d: %w", cropID, regionID, err)
	}
	return p, nil
}

// List returns prices joined with crop and region names, filtered by the
// optional crop/region name or ID filters and ordered by crop then region.
func (s *PriceStore) List(ctx context.Context, filter domain.PriceFilter) ([]domain.PriceWithNames, error) {
	var b strings.Builder
	b.WriteString(`
		SELECT p.id, p.crop_id, p.region_id, p.price, p.previous_price,
		       p.unit, p.updated_at, p.updated_by, c.name, r.name
		FROM market_prices p
		JOIN crops c ON c.id = p.crop_id
		JOIN regions r ON r.id = p.region_id`)

	var (
		conds []string
		args  []any
	)
	addCond := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.CropID != 0 {
		addCond("p.crop_id = $%d", filter.CropID)
	} else if filter.Crop != "" {
		addCond("LOWER(c.name) = LOWER($%d)", filter.Crop)
	}
	if filter.RegionID != 0 {
		addCond("p.region_id = $%d", filter.RegionID)
	} else if filter.Region != "" {
		addCond("LOWER(r.name) = LOWER($%d)", filter.Region)
	}

	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY c.name, r.name")

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list prices: %w", err)
	}
	defer rows.Close()

	var prices []domain.PriceWithNames
	for rows.Next() {
		var p domain.PriceWithNames
		if err := rows.Scan(
			&p.ID, &p.CropID, &p.RegionID, &p.Price.Price, &p.PreviousPrice,
			&p.Unit, &p.UpdatedAt, &p.UpdatedBy, &p.CropName, &p.RegionName,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan price row: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list prices: %w", err)
	}
	return prices, nil
}

var _ domain.PriceStore = (*PriceStore)(nil)
