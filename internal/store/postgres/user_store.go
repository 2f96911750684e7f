package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dondie52/agriconnect/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore backed by the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// ListActiveFarmers returns all active farmer accounts, the fan-out audience
// for price alerts.
func (s *UserStore) ListActiveFarmers(ctx context.Context) ([]domain.User, error) {
	const query = `
		SELECT id, name, role, active, created_at
		FROM users
		WHERE role = 'farmer' AND active`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list active farmers: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &role, &u.Active, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		u.Role = domain.UserRole(role)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list active farmers: %w", err)
	}
	return users, nil
}

var _ domain.UserStore = (*UserStore)(nil)
