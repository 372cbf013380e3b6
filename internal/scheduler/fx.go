package scheduler

import (
	"context"

	"github.com/smallbiznis/pulse/internal/config"
	healthdomain "github.com/smallbiznis/pulse/internal/health/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(NewRegistry),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, registry *Registry, cfg config.Config, svc healthdomain.Service, log *zap.Logger) error {
	if err := RegisterScoringJob(registry, cfg, svc, log); err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return registry.Start()
		},
		OnStop: func(ctx context.Context) error {
			return registry.Stop(ctx)
		},
	})
	return nil
}
