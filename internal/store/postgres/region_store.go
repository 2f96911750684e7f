package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dondie52/agriconnect/internal/domain"
)

// RegionStore implements domain.RegionStore using PostgreSQL.
type RegionStore struct {
	pool *pgxpool.Pool
}

// NewRegionStore creates a new RegionStore backed by the given connection pool.
func NewRegionStore(pool *pgxpool.Pool) *RegionStore {
	return &RegionStore{pool: pool}
}

// List returns all regions ordered by name.
func (s *RegionStore) List(ctx context.Context) ([]domain.Region, error) {
	const query = `SELECT id, name, latitude, longitude FROM regions ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude); err != nil {
			return nil, fmt.Errorf("postgres: scan region: %w", err)
		}
		regions = append(regions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list regions: %w", err)
	}
	return regions, nil
}

// GetByID returns a single region. It returns domain.ErrNotFound when the
// region does not exist.
func (s *RegionStore) GetByID(ctx context.Context, id int64) (domain.Region, error) {
	const query = `SELECT id, name, latitude, longitude FROM regions WHERE id = $1`

	var r domain.Region
	err := s.pool.QueryRow(ctx, query, id).Scan(&r.ID, &r.Name, &r.Latitude, &r.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Region{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Region{}, fmt.Errorf("postgres: get region %d: %w", id, err)
	}
	return r, nil
}

var _ domain.RegionStore = (*RegionStore)(nil)
