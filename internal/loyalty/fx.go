package loyalty

import "go.uber.org/fx"

var Module = fx.Module("loyalty.pipeline",
	fx.Provide(NewPipeline),
)
