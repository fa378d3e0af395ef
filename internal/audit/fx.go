package audit

import (
	"github.com/brewtab/perka/internal/audit/repository"
	"github.com/brewtab/perka/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
