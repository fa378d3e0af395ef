package dispatch

import (
	"context"

	appconfig "github.com/brewtab/perka/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("mailer.dispatch",
	fx.Provide(newConfig),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func newConfig(cfg appconfig.Config) Config {
	return Config{PollInterval: cfg.DispatchInterval}.withDefaults()
}

func runWorker(lc fx.Lifecycle, worker *Worker) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
