package components

import (
	"context"

	"bike-reserve/internal/handler/api"
	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		worker.NewDispatcher,
		worker.NewTriggers,
		worker.NewHandlers,
		fx.Annotate(
			worker.NewDrainer,
			fx.As(new(api.DeadLetterDrainer)),
		),
	),
	fx.Invoke(startDispatcher),
)

// startDispatcher registers every job type, seeds the standing trigger
// chains and runs the polling loops for the process lifetime.
func startDispatcher(
	lc fx.Lifecycle,
	dispatcher *worker.Dispatcher,
	handlers *worker.Handlers,
	triggers *worker.Triggers,
	cfg config.WorkerConfig,
) {
	handlers.RegisterAll(dispatcher, worker.PoliciesFromConfig(cfg))

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := triggers.Seed(ctx); err != nil {
				cancel()
				return err
			}
			go func() {
				defer close(done)
				dispatcher.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
