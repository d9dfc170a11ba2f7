package components

import (
	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/pkg/clock"
	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/usecase/commands"
	"bike-reserve/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	func(clk clock.Clock, cfg config.ReservationConfig) *reservation.Factory {
		return reservation.NewFactory(clk, cfg.HoldDuration)
	},
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewReservationCommands,
		commands.NewTemplateCommands,
		commands.NewAssignmentEngine,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewReservationQueries,
		queries.NewTemplateQueries,
	),
)
