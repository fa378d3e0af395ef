// Package observability wires logging and tracing into the fx graph.
package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/brewtab/perka/internal/config"
	"github.com/brewtab/perka/internal/observability/logger"
	"github.com/brewtab/perka/internal/observability/tracing"
	"go.uber.org/fx"
)

var version = "dev"

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(newTracingConfig),
	fx.Invoke(tracing.NewProvider),
)

func newTracingConfig(cfg config.Config) tracing.Config {
	enabled, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("TRACING_ENABLED")))
	ratio, _ := strconv.ParseFloat(strings.TrimSpace(os.Getenv("TRACING_SAMPLING_RATIO")), 64)
	return tracing.Config{
		Enabled:          enabled,
		ServiceName:      "perka",
		ServiceVersion:   version,
		Environment:      cfg.Environment,
		ExporterEndpoint: strings.TrimSpace(os.Getenv("OTLP_ENDPOINT")),
		ExporterProtocol: strings.TrimSpace(os.Getenv("OTLP_PROTOCOL")),
		SamplingRatio:    ratio,
	}
}
