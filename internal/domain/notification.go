package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a user-facing notification.
type NotificationType string

const (
	NotificationPriceAlert NotificationType = "price_alert"
	NotificationOrder      NotificationType = "order"
	NotificationSystem     NotificationType = "system"
)

// Notification is a persisted message displayed in a user's feed. ReferenceID
// and ReferenceType point the UI at the entity the message is about (for
// price alerts, the crop).
type Notification struct {
	ID            uuid.UUID
	UserID        int64
	Type          NotificationType
	Title         string
	Message       string
	ReferenceID   int64
	ReferenceType string
	Read          bool
	CreatedAt     time.Time
}
