package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound = errors.New("notification_not_found")
	ErrInvalidID            = errors.New("invalid_notification_id")
	ErrInvalidEvent         = errors.New("invalid_notification_event")
)

// Event is one fact the dispatcher may notify about. CausingID is the
// identifier of whatever triggered it (order ID for accruals, reward ID for
// earned rewards) and anchors the dedupe key.
type Event struct {
	CustomerID snowflake.ID
	Type       NotificationType
	CausingID  string
	Message    string
}

// DedupeKey builds the at-most-once key for this event.
func (e Event) DedupeKey() string {
	return fmt.Sprintf("%s:%s:%s", e.CustomerID, e.Type, e.CausingID)
}

// Service creates and acknowledges notifications. Notify returns (nil, nil)
// for a duplicate event: duplication is expected, not an error.
type Service interface {
	Notify(ctx context.Context, event Event) (*Notification, error)
	NotifyTx(ctx context.Context, tx *gorm.DB, event Event) (*Notification, error)
	ListUnread(ctx context.Context, customerID *snowflake.ID) ([]Notification, error)
	MarkRead(ctx context.Context, id string) (*Notification, error)
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
