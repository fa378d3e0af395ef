// Package domain contains reward records and their state machine. A reward
// leaves Unused exactly once, to Used or Expired, and never comes back.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RewardType classifies what the customer earned.
type RewardType string

const (
	RewardTypeFreeDrink   RewardType = "free_drink"
	RewardTypeDiscount    RewardType = "discount"
	RewardTypeBonusPoints RewardType = "bonus_points"
)

// RewardStatus is the reward lifecycle state. Used and Expired are terminal.
type RewardStatus string

const (
	RewardStatusUnused  RewardStatus = "unused"
	RewardStatusUsed    RewardStatus = "used"
	RewardStatusExpired RewardStatus = "expired"
)

// Reward is issued on a threshold crossing. The unique index on
// (customer_id, threshold_multiple) is the issuance dedup key: re-issuing the
// same crossing is a no-op even across process restarts.
type Reward struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID        snowflake.ID `gorm:"not null;index;uniqueIndex:ux_rewards_customer_multiple,priority:1" json:"customer_id"`
	ThresholdMultiple int          `gorm:"not null;uniqueIndex:ux_rewards_customer_multiple,priority:2" json:"threshold_multiple"`
	RewardType        RewardType   `gorm:"type:text;not null" json:"reward_type"`
	Description       string       `gorm:"type:text;not null" json:"description"`
	Status            RewardStatus `gorm:"type:text;not null;default:unused;index" json:"status"`
	EarnedAt          time.Time    `gorm:"not null" json:"earned_at"`
	UsedAt            *time.Time   `json:"used_at,omitempty"`
	ExpiresAt         *time.Time   `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Reward) TableName() string { return "rewards" }

// Terminal reports whether the reward admits no further transitions.
func (r Reward) Terminal() bool {
	return r.Status == RewardStatusUsed || r.Status == RewardStatusExpired
}

// ExpiredBy reports whether the reward's expiry has passed at the given time.
func (r Reward) ExpiredBy(now time.Time) bool {
	if r.Status == RewardStatusExpired {
		return true
	}
	return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
}
