package health

import (
	"github.com/smallbiznis/pulse/internal/health/repository"
	"github.com/smallbiznis/pulse/internal/health/scoring"
	"github.com/smallbiznis/pulse/internal/health/service"
	"go.uber.org/fx"
)

var Module = fx.Module("health",
	fx.Provide(scoring.DefaultConfig),
	fx.Provide(scoring.NewScorer),
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
