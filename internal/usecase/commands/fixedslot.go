package commands

import (
	"context"
	"log/slog"
	"time"

	"bike-reserve/internal/domain/fixedslot"
	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/pkg/clock"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/shared"

	"github.com/google/uuid"
)

type CreateTemplateParams struct {
	UserID    uuid.UUID
	StationID uuid.UUID
	SlotStart string // HH:MM
	SlotEnd   string // HH:MM
	Days      []int  // 0-6, Sunday first
	StartDate time.Time
	EndDate   time.Time
}

type TemplateCommands interface {
	CreateTemplate(ctx context.Context, params CreateTemplateParams) (*fixedslot.Template, error)
	PauseTemplate(ctx context.Context, actor Actor, id uuid.UUID) error
	ResumeTemplate(ctx context.Context, actor Actor, id uuid.UUID) error
	CancelTemplate(ctx context.Context, actor Actor, id uuid.UUID) error
}

type templateCommandsImpl struct {
	repo   TemplateRepository
	pool   db.Pool
	clock  clock.Clock
	logger *slog.Logger
}

func NewTemplateCommands(repo TemplateRepository, pool db.Pool, clk clock.Clock, logger *slog.Logger) TemplateCommands {
	return &templateCommandsImpl{
		repo:   repo,
		pool:   pool,
		clock:  clk,
		logger: logger,
	}
}

func (t *templateCommandsImpl) CreateTemplate(ctx context.Context, params CreateTemplateParams) (*fixedslot.Template, error) {
	slotStart, err := fixedslot.ParseTimeOfDay(params.SlotStart)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	slotEnd, err := fixedslot.ParseTimeOfDay(params.SlotEnd)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}
	days, err := fixedslot.NewDaySet(params.Days)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	tpl, err := fixedslot.NewTemplate(
		params.UserID, params.StationID,
		slotStart, slotEnd, days,
		params.StartDate, params.EndDate,
		t.clock.Now(),
	)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	created, err := shared.RunInTx(ctx, t.pool, func(tx db.DBTX) (*fixedslot.Template, error) {
		if err := t.repo.Create(ctx, tx, tpl); err != nil {
			return nil, err
		}
		return tpl, nil
	})
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return created, nil
}

func (t *templateCommandsImpl) PauseTemplate(ctx context.Context, actor Actor, id uuid.UUID) error {
	return t.transition(ctx, actor, id, func(tpl *fixedslot.Template, now time.Time) error {
		return tpl.Pause(now)
	})
}

func (t *templateCommandsImpl) ResumeTemplate(ctx context.Context, actor Actor, id uuid.UUID) error {
	return t.transition(ctx, actor, id, func(tpl *fixedslot.Template, now time.Time) error {
		return tpl.Resume(now)
	})
}

func (t *templateCommandsImpl) CancelTemplate(ctx context.Context, actor Actor, id uuid.UUID) error {
	return t.transition(ctx, actor, id, func(tpl *fixedslot.Template, now time.Time) error {
		return tpl.Cancel(now)
	})
}

// transition loads the template, verifies ownership, applies the domain
// status change and persists the result. Schedule fields are never touched.
func (t *templateCommandsImpl) transition(
	ctx context.Context,
	actor Actor,
	id uuid.UUID,
	apply func(tpl *fixedslot.Template, now time.Time) error,
) error {
	tpl, err := t.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrTemplateNotFound)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !tpl.IsOwnedBy(actor.UserID) && !actor.IsStaff {
		return errs.ErrNotTemplateOwner
	}

	now := t.clock.Now()
	if err := apply(tpl, now); err != nil {
		return errs.Mark(err, errs.ErrDomainValidation)
	}

	if err := t.repo.UpdateStatus(ctx, id, tpl.Status(), now); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}
