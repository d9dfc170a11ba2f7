package components

import (
	"bike-reserve/internal/infra/collab"
	"bike-reserve/internal/infra/outbox"
	"bike-reserve/internal/infra/pubsub"
	"bike-reserve/internal/infra/readstore"
	"bike-reserve/internal/infra/writerepo"
	"bike-reserve/internal/usecase/commands"
	"bike-reserve/internal/usecase/queries"
	"bike-reserve/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		// Write side
		fx.Annotate(
			writerepo.NewReservationRepository,
			fx.As(new(commands.ReservationRepository)),
		),
		fx.Annotate(
			writerepo.NewTemplateRepository,
			fx.As(new(commands.TemplateRepository)),
		),
		// Read side
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
		),
		fx.Annotate(
			readstore.NewTemplateReadStore,
			fx.As(new(queries.TemplateReadStore)),
		),
		// Outbox
		fx.Annotate(
			NewOutboxStore,
			fx.As(new(commands.OutboxEnqueuer)),
			fx.As(new(worker.JobStore)),
			fx.As(new(worker.DeadLetterStore)),
		),
		// Collaborators
		fx.Annotate(
			collab.NewHTTPWallet,
			fx.As(new(commands.Wallet)),
		),
		fx.Annotate(
			collab.NewHTTPNotifier,
			fx.As(new(commands.Notifier)),
		),
		fx.Annotate(
			collab.NewPGBikeCatalog,
			fx.As(new(commands.BikeCatalog)),
		),
		// Realtime fan-out
		fx.Annotate(
			pubsub.NewBroker,
			fx.As(new(commands.Publisher)),
		),
	),
)

func NewOutboxStore(pool *pgxpool.Pool) *outbox.Store {
	return outbox.NewStore(pool, commands.ValidateJobPayload)
}
