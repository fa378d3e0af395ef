package main

import (
	"github.com/brewtab/perka/internal/audit"
	"github.com/brewtab/perka/internal/clock"
	"github.com/brewtab/perka/internal/config"
	"github.com/brewtab/perka/internal/customer"
	"github.com/brewtab/perka/internal/dashboard"
	"github.com/brewtab/perka/internal/events"
	"github.com/brewtab/perka/internal/loyalty"
	"github.com/brewtab/perka/internal/mailer"
	"github.com/brewtab/perka/internal/migration"
	"github.com/brewtab/perka/internal/notification"
	"github.com/brewtab/perka/internal/observability"
	"github.com/brewtab/perka/internal/reward"
	"github.com/brewtab/perka/internal/scheduler"
	"github.com/brewtab/perka/internal/seed"
	"github.com/brewtab/perka/internal/server"
	"github.com/brewtab/perka/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			if err := migration.Run(conn); err != nil {
				return err
			}
			if !cfg.IsProduction() {
				return seed.EnsureDemoCustomers(conn)
			}
			return nil
		}),
		events.Module,
		customer.Module,
		reward.Module,
		notification.Module,
		audit.Module,
		dashboard.Module,
		loyalty.Module,
		mailer.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
