package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dondie52/agriconnect/internal/domain"
)

// NotificationStore implements domain.NotificationStore using PostgreSQL.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore creates a new NotificationStore backed by the given
// connection pool.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

const insertNotification = `
	INSERT INTO notifications (id, user_id, type, title, message, reference_id, reference_type, read, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`

// Create persists a single notification. A zero ID is replaced with a fresh
// UUID.
func (s *NotificationStore) Create(ctx context.Context, n domain.Notification) error {
	n = withDefaults(n)
	_, err := s.pool.Exec(ctx, insertNotification,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message,
		n.ReferenceID, n.ReferenceType, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create notification for user %d: %w", n.UserID, err)
	}
	return nil
}

// CreateBatch persists many notifications in a single batched round trip.
// This is the bulk path used by alert fan-out; an empty slice is a no-op.
func (s *NotificationStore) CreateBatch(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range ns {
		n = withDefaults(n)
		batch.Queue(insertNotification,
			n.ID, n.UserID, string(n.Type), n.Title, n.Message,
			n.ReferenceID, n.ReferenceType, n.CreatedAt,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range ns {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: create notification batch (%d rows): %w", len(ns), err)
		}
	}
	return nil
}

func withDefaults(n domain.Notification) domain.Notification {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return n
}

var _ domain.NotificationStore = (*NotificationStore)(nil)
