package bootstrap

import (
	"bike-reserve/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.ReservationConfig { return cfg.Reservation },
		func(cfg config.Config) config.WorkerConfig { return cfg.Worker },
		func(cfg config.Config) config.CollabConfig { return cfg.Collab },
	),
)
