package scheduler

import (
	"context"

	appconfig "github.com/brewtab/perka/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(newConfig),
	fx.Provide(NewSweeper),
	fx.Invoke(runSweeper),
)

func newConfig(cfg appconfig.Config) Config {
	return Config{SweepInterval: cfg.SweepInterval}.withDefaults()
}

func runSweeper(lc fx.Lifecycle, sweeper *Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sweeper.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
