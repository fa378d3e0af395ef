// Package migration applies the engine's schema at boot. Models are the
// single source of truth; gorm reconciles tables and indexes against them.
package migration

import (
	auditdomain "github.com/brewtab/perka/internal/audit/domain"
	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/brewtab/perka/internal/events"
	notificationdomain "github.com/brewtab/perka/internal/notification/domain"
	rewarddomain "github.com/brewtab/perka/internal/reward/domain"
	"gorm.io/gorm"
)

// Run migrates every table the engine owns.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(
		&customerdomain.Customer{},
		&rewarddomain.Reward{},
		&notificationdomain.Notification{},
		&events.LoyaltyEvent{},
		&auditdomain.AuditLog{},
	)
}
