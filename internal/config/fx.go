package config

import "go.uber.org/fx"

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(func(cfg Config) Loyalty { return cfg.Loyalty }),
	fx.Provide(func(cfg Config) Mail { return cfg.Mail }),
)
