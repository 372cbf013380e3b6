package observability

import (
	"github.com/smallbiznis/pulse/internal/config"
	"github.com/smallbiznis/pulse/internal/observability/logger"
	"github.com/smallbiznis/pulse/internal/observability/metrics"
	"github.com/smallbiznis/pulse/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	logger.Module,
	fx.Provide(func(cfg config.Config) *metrics.ScoringMetrics {
		return metrics.ScoringWithConfig(metrics.Config{
			ServiceName: cfg.ServiceName,
			Environment: cfg.Environment,
		})
	}),
	fx.Invoke(tracing.NewProvider),
)
