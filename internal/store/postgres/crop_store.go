package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dondie52/agriconnect/internal/domain"
)

// CropStore implements domain.CropStore using PostgreSQL.
type CropStore struct {
	pool *pgxpool.Pool
}

// NewCropStore creates a new CropStore backed by the given connection pool.
func NewCropStore(pool *pgxpool.Pool) *CropStore {
	return &CropStore{pool: pool}
}

// List returns all crops ordered by name.
func (s *CropStore) List(ctx context.Context) ([]domain.Crop, error) {
	const query = `SELECT id, name, category FROM crops ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list crops: %w", err)
	}
	defer rows.Close()

	var crops []domain.Crop
	for rows.Next() {
		var c domain.Crop
		if err := rows.Scan(&c.ID, &c.Name, &c.Category); err != nil {
			return nil, fmt.Errorf("postgres: scan crop: %w", err)
		}
		crops = append(crops, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list crops: %w", err)
	}
	return crops, nil
}

// GetByID returns a single crop. It returns domain.ErrNotFound when the crop
// does not exist.
func (s *CropStore) GetByID(ctx context.Context, id int64) (domain.Crop, error) {
	const query = `SELECT id, name, category FROM crops WHERE id = $1`

	var c domain.Crop
	err := s.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Category)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Crop{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Crop{}, fmt.Errorf("postgres: get crop %d: %w", id, err)
	}
	return c, nil
}

var _ domain.CropStore = (*CropStore)(nil)
