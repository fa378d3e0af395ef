// Package db provides the gorm connection used by every service.
package db

import (
	"context"
	"errors"
	"strings"

	"github.com/brewtab/perka/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrMissingDSN = errors.New("missing_database_dsn")

// Open connects to the configured database. Postgres is used when a DSN is
// configured; a local sqlite file backs development boots.
func Open(cfg config.Config) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseDSN)
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	if dsn == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingDSN
		}
		return gorm.Open(sqlite.Open("perka.db"), gormCfg)
	}
	return gorm.Open(postgres.Open(dsn), gormCfg)
}

// Module provides the database connection and closes it on shutdown.
var Module = fx.Module("db",
	fx.Provide(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
		conn, err := Open(cfg)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				log.Info("closing database connection")
				return sqlDB.Close()
			},
		})
		return conn, nil
	}),
)
