package signal

import (
	"github.com/smallbiznis/pulse/internal/signal/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("signal",
	fx.Provide(DefaultConfig),
	fx.Provide(repository.NewSource),
	fx.Provide(NewCollector),
)
