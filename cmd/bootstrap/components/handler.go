package components

import (
	"bike-reserve/internal/handler"
	"bike-reserve/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewReservationHandler,
		api.NewTemplateHandler,
		api.NewAdminHandler,
	),
	fx.Invoke(handler.NewRouter),
)
