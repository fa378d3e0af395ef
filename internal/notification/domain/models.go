// Package domain contains in-app notification records. The dedupe key makes
// notification creation at-most-once per causing event, surviving restarts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// NotificationType classifies what the customer is being told about.
type NotificationType string

const (
	NotificationTypeRewardEarned     NotificationType = "reward_earned"
	NotificationTypePointsAdded      NotificationType = "points_added"
	NotificationTypeMilestoneReached NotificationType = "milestone_reached"
)

// Notification is a single in-app message for staff or customer display.
// Notifications are never deleted; past the retention window they are
// archived instead.
type Notification struct {
	ID         snowflake.ID     `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID     `gorm:"not null;index" json:"customer_id"`
	Type       NotificationType `gorm:"type:text;not null" json:"type"`
	Message    string           `gorm:"type:text;not null" json:"message"`
	DedupeKey  string           `gorm:"type:text;not null;uniqueIndex:ux_notifications_dedupe" json:"-"`
	IsRead     bool             `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt     *time.Time       `json:"read_at,omitempty"`
	ArchivedAt *time.Time       `gorm:"index" json:"-"`
	CreatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }
