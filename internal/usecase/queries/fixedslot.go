package queries

import (
	"context"

	"bike-reserve/internal/pkg/errs"

	"github.com/google/uuid"
)

type TemplateReadStore interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*TemplateView, error)
}

type TemplateQueries interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*TemplateView, error)
}

type templateQueriesImpl struct {
	store TemplateReadStore
}

func NewTemplateQueries(store TemplateReadStore) TemplateQueries {
	return &templateQueriesImpl{store: store}
}

func (q *templateQueriesImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*TemplateView, error) {
	views, err := q.store.FindByUserID(ctx, userID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return views, nil
}
