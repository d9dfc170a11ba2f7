//go:build unit

package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/infra/outbox"
	"bike-reserve/internal/pkg/clock"
	"bike-reserve/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeadLetterStore struct {
	letters    []outbox.DeadLetter
	listErr    error
	enqueueErr map[string]error // keyed by payload
	enqueued   []triggerEnqueue
	deleted    []uuid.UUID
}

func (f *fakeDeadLetterStore) ListDeadLetters(_ context.Context, jobType string, limit int32) ([]outbox.DeadLetter, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []outbox.DeadLetter
	for _, dl := range f.letters {
		if dl.Type == jobType && int32(len(out)) < limit {
			out = append(out, dl)
		}
	}
	return out, nil
}

func (f *fakeDeadLetterStore) DeleteDeadLetter(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDeadLetterStore) Enqueue(_ context.Context, _ db.DBTX, jobType string, payload []byte, runAt time.Time, dedupeKey *string) error {
	if err := f.enqueueErr[string(payload)]; err != nil {
		return err
	}
	call := triggerEnqueue{jobType: jobType, payload: payload, runAt: runAt}
	if dedupeKey != nil {
		call.dedupeKey = *dedupeKey
	}
	f.enqueued = append(f.enqueued, call)
	return nil
}

func deadLetterOf(jobType string) outbox.DeadLetter {
	return outbox.DeadLetter{
		ID:      uuid.New(),
		JobID:   uuid.New(),
		Type:    jobType,
		Payload: []byte(`{"reservation_id":"x"}`),
		RunAt:   triggerNow.Add(-time.Hour),
	}
}

func newTestDrainer(store *fakeDeadLetterStore) *Drainer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDrainer(store, triggerStubPool{}, clock.NewMockClock(triggerNow), logger)
}

func TestDrainerRequeuesAndDeletes(t *testing.T) {
	store := &fakeDeadLetterStore{
		letters: []outbox.DeadLetter{
			deadLetterOf("wallet.release"),
			deadLetterOf("wallet.release"),
			deadLetterOf("reservation.expire"),
		},
	}
	d := newTestDrainer(store)

	n, err := d.Requeue(context.Background(), "wallet.release", 10)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, store.enqueued, 2)
	for _, call := range store.enqueued {
		assert.Equal(t, "wallet.release", call.jobType)
		// Drained jobs run immediately, not at their original time.
		assert.Equal(t, triggerNow, call.runAt)
	}
	assert.Len(t, store.deleted, 2)
}

func TestDrainerHonorsLimit(t *testing.T) {
	store := &fakeDeadLetterStore{
		letters: []outbox.DeadLetter{
			deadLetterOf("wallet.release"),
			deadLetterOf("wallet.release"),
			deadLetterOf("wallet.release"),
		},
	}
	d := newTestDrainer(store)

	n, err := d.Requeue(context.Background(), "wallet.release", 2)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDrainerKeepsLetterWhenEnqueueFails(t *testing.T) {
	broken := deadLetterOf("wallet.release")
	broken.Payload = []byte(`{"hold_ref":"poison"}`)
	ok := deadLetterOf("wallet.release")
	store := &fakeDeadLetterStore{
		letters:    []outbox.DeadLetter{broken, ok},
		enqueueErr: map[string]error{string(broken.Payload): errs.New("connection reset")},
	}
	d := newTestDrainer(store)

	n, err := d.Requeue(context.Background(), "wallet.release", 10)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotContains(t, store.deleted, broken.ID)
	assert.Contains(t, store.deleted, ok.ID)
}

func TestDrainerListFailure(t *testing.T) {
	store := &fakeDeadLetterStore{listErr: errs.New("database gone")}
	d := newTestDrainer(store)

	n, err := d.Requeue(context.Background(), "wallet.release", 10)

	assert.Error(t, err)
	assert.Zero(t, n)
}
