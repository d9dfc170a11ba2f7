package commands

import (
	"context"
	"log/slog"
	"time"

	"bike-reserve/internal/domain/fixedslot"
	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/shared"

	"github.com/google/uuid"
)

const BikeStatusReserved = "reserved"

// AssignmentSummary is the observability record of one daily run. It is
// logged, not persisted as domain state.
type AssignmentSummary struct {
	SlotDate           string
	TotalTemplates     int
	Assigned           int
	NoBike             int
	MissingReservation int
	Conflicts          int
}

// AssignmentEngine matches the day's ACTIVE fixed-slot templates to
// available bikes, station by station, in template creation order.
type AssignmentEngine struct {
	templateRepo    TemplateRepository
	reservationRepo ReservationRepository
	outbox          OutboxEnqueuer
	catalog         BikeCatalog
	publisher       Publisher
	factory         *reservation.Factory
	pool            db.Pool
	logger          *slog.Logger
}

func NewAssignmentEngine(
	templateRepo TemplateRepository,
	reservationRepo ReservationRepository,
	outbox OutboxEnqueuer,
	catalog BikeCatalog,
	publisher Publisher,
	factory *reservation.Factory,
	pool db.Pool,
	logger *slog.Logger,
) *AssignmentEngine {
	return &AssignmentEngine{
		templateRepo:    templateRepo,
		reservationRepo: reservationRepo,
		outbox:          outbox,
		catalog:         catalog,
		publisher:       publisher,
		factory:         factory,
		pool:            pool,
		logger:          logger,
	}
}

// RunDaily assigns every covered template for slotDate. One template's
// failure never aborts the run, and re-running the same date is a no-op for
// templates that already got their reservation (slot-key dedupe).
func (e *AssignmentEngine) RunDaily(ctx context.Context, slotDate time.Time) (AssignmentSummary, error) {
	summary := AssignmentSummary{SlotDate: slotDate.Format("2006-01-02")}

	templates, err := e.templateRepo.ListActiveCovering(ctx, slotDate)
	if err != nil {
		return summary, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	summary.TotalTemplates = len(templates)

	for _, group := range groupByStation(templates) {
		e.assignStation(ctx, group, slotDate, &summary)
	}

	e.logger.Info("fixed-slot assignment run finished",
		"slot_date", summary.SlotDate,
		"total_templates", summary.TotalTemplates,
		"assigned", summary.Assigned,
		"no_bike", summary.NoBike,
		"missing_reservation", summary.MissingReservation,
		"conflicts", summary.Conflicts,
	)
	return summary, nil
}

type stationGroup struct {
	stationID uuid.UUID
	templates []*fixedslot.Template
}

// groupByStation buckets templates per station, keeping creation order both
// across groups and within each group.
func groupByStation(templates []*fixedslot.Template) []stationGroup {
	index := make(map[uuid.UUID]int)
	var groups []stationGroup
	for _, tpl := range templates {
		i, ok := index[tpl.StationID()]
		if !ok {
			i = len(groups)
			index[tpl.StationID()] = i
			groups = append(groups, stationGroup{stationID: tpl.StationID()})
		}
		groups[i].templates = append(groups[i].templates, tpl)
	}
	return groups
}

func (e *AssignmentEngine) assignStation(ctx context.Context, group stationGroup, slotDate time.Time, summary *AssignmentSummary) {
	bikes, err := e.catalog.ListAvailableBikes(ctx, group.stationID)
	if err != nil {
		e.logger.Error("failed to list available bikes; counting station as capacity-exhausted",
			"station_id", group.stationID, "error", err)
		summary.NoBike += len(group.templates)
		return
	}

	for _, tpl := range group.templates {
		if len(bikes) == 0 {
			// Normal capacity exhaustion, retried on the next run.
			summary.NoBike++
			continue
		}

		bike := bikes[0]
		switch e.assignOne(ctx, tpl, bike, slotDate) {
		case assignCreated:
			bikes = bikes[1:]
			summary.Assigned++
		case assignAlreadyDone:
			// Earlier run created this reservation; the bike stays in
			// the pool for the next template.
			summary.Conflicts++
		case assignFailed:
			summary.MissingReservation++
		}
	}
}

type assignResult int

const (
	assignCreated assignResult = iota
	assignAlreadyDone
	assignFailed
)

func (e *AssignmentEngine) assignOne(ctx context.Context, tpl *fixedslot.Template, bikeID uuid.UUID, slotDate time.Time) assignResult {
	startTime, endTime := tpl.SlotWindowOn(slotDate)

	entity, err := e.factory.NewFixedSlot(
		tpl.UserID(), tpl.StationID(), bikeID, tpl.ID(),
		startTime, endTime, slotDate,
		reservation.ZeroMoney(), nil,
	)
	if err != nil {
		e.logger.Error("failed to build fixed-slot reservation",
			"template_id", tpl.ID(), "error", err)
		return assignFailed
	}

	_, err = shared.RunInTx(ctx, e.pool, func(tx db.DBTX) (struct{}, error) {
		if err := e.reservationRepo.Create(ctx, tx, entity); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, enqueueExpiryJob(ctx, tx, e.outbox, entity)
	})
	if err != nil {
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return assignAlreadyDone
		}
		e.logger.Error("failed to create fixed-slot reservation",
			"template_id", tpl.ID(), "bike_id", bikeID, "error", err)
		return assignFailed
	}

	if err := e.catalog.MarkBikeStatus(ctx, bikeID, BikeStatusReserved); err != nil {
		e.logger.Warn("failed to mark bike reserved",
			"bike_id", bikeID, "reservation_id", entity.ID(), "error", err)
	} else {
		publishBikeStatus(ctx, e.publisher, e.logger, BikeStatusEvent{
			BikeID:        bikeID,
			ReservationID: entity.ID(),
			Status:        BikeStatusReserved,
			OccurredAt:    e.factory.Clock.Now(),
		})
	}
	return assignCreated
}
