// Package domain contains the customer ledger models. Loyalty points are
// mutated only through accrual and redemption; nothing else writes them.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer is the ledger record for a loyalty program member.
type Customer struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	Phone          string       `gorm:"type:text;not null;index" json:"phone"`
	Email          string       `gorm:"type:text" json:"email,omitempty"`
	LoyaltyPoints  int          `gorm:"not null;default:0" json:"loyalty_points"`
	TotalPurchases int          `gorm:"not null;default:0" json:"total_purchases"`
	LastPurchaseAt *time.Time   `json:"last_purchase_at,omitempty"`
	ArchivedAt     *time.Time   `gorm:"index" json:"-"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
