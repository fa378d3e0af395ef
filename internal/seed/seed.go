// Package seed bootstraps demo data for development boots. Seeding is
// idempotent: a restart reuses whatever the first boot created.
package seed

import (
	"context"
	"errors"
	"time"

	customerdomain "github.com/brewtab/perka/internal/customer/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type demoCustomer struct {
	Name   string
	Phone  string
	Email  string
	Points int
}

var demoCustomers = []demoCustomer{
	{Name: "Dana Reyes", Phone: "555-0101", Email: "dana@example.com", Points: 9},
	{Name: "Miguel Santos", Phone: "555-0102", Email: "miguel@example.com", Points: 4},
	{Name: "Priya Shah", Phone: "555-0103", Points: 17},
}

// EnsureDemoCustomers seeds a handful of customers for local development.
func EnsureDemoCustomers(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, demo := range demoCustomers {
			var existing customerdomain.Customer
			err := tx.WithContext(ctx).
				Where("phone = ?", demo.Phone).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			customer := customerdomain.Customer{
				ID:            node.Generate(),
				Name:          demo.Name,
				Phone:         demo.Phone,
				Email:         demo.Email,
				LoyaltyPoints: demo.Points,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.WithContext(ctx).Create(&customer).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
