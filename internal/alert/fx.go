package alert

import (
	"github.com/smallbiznis/pulse/internal/alert/repository"
	"github.com/smallbiznis/pulse/internal/alert/trigger"
	"go.uber.org/fx"
)

var Module = fx.Module("alert",
	fx.Provide(trigger.DefaultConfig),
	fx.Provide(repository.NewRepository),
	fx.Provide(trigger.New),
)
