package mailer

import (
	"github.com/brewtab/perka/internal/config"
	"github.com/brewtab/perka/internal/mailer/dispatch"
	mailerdomain "github.com/brewtab/perka/internal/mailer/domain"
	"github.com/brewtab/perka/internal/mailer/relay"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("mailer",
	fx.Provide(newMailer),
	dispatch.Module,
)

func newMailer(cfg config.Mail, log *zap.Logger) mailerdomain.Mailer {
	return relay.NewClient(cfg, log)
}
