package reward

import (
	"github.com/brewtab/perka/internal/reward/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reward.service",
	fx.Provide(service.NewService),
)
