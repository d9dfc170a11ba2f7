//go:build unit

package commands_test

import (
	"context"
	"sync"
	"time"

	"bike-reserve/internal/domain/fixedslot"
	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakePool satisfies db.Pool without a database. Transactions are vacuous;
// the fake repositories apply their effects immediately, which is enough to
// observe what the use cases attempt.
type fakePool struct{}

func (p *fakePool) Begin(_ context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }
func (p *fakePool) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (p *fakePool) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (p *fakePool) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return nil }

type fakeTx struct{}

func (t *fakeTx) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }
func (t *fakeTx) Commit(_ context.Context) error          { return nil }
func (t *fakeTx) Rollback(_ context.Context) error        { return pgx.ErrTxClosed }
func (t *fakeTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *fakeTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *fakeTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *fakeTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *fakeTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (t *fakeTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return nil }
func (t *fakeTx) Conn() *pgx.Conn                                        { return nil }

// fakeReservationRepo mirrors the conditional-update semantics of the real
// repository: transitions only win from PENDING and report a lost race as nil.
type fakeReservationRepo struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*reservation.Reservation
	slotKeys  map[string]uuid.UUID
	createErr error
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{
		byID:     make(map[uuid.UUID]*reservation.Reservation),
		slotKeys: make(map[string]uuid.UUID),
	}
}

func (f *fakeReservationRepo) Create(_ context.Context, _ db.DBTX, res *reservation.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if key := res.SlotKey(); key != nil {
		if _, taken := f.slotKeys[*key]; taken {
			return infra.WrapRepoErr("duplicate slot key", nil, infra.KindDuplicateKey)
		}
		f.slotKeys[*key] = res.ID()
	}
	f.byID[res.ID()] = res
	return nil
}

func (f *fakeReservationRepo) FindByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return res, nil
}

func (f *fakeReservationRepo) ConfirmIfPending(_ context.Context, _ db.DBTX, id uuid.UUID, now time.Time) (*commands.TransitionResult, error) {
	return f.transition(id, func(res *reservation.Reservation) error {
		return res.Confirm(now)
	})
}

func (f *fakeReservationRepo) CancelIfPending(_ context.Context, _ db.DBTX, id uuid.UUID, reason string, now time.Time) (*commands.TransitionResult, error) {
	return f.transition(id, func(res *reservation.Reservation) error {
		return res.Cancel(reason, now)
	})
}

func (f *fakeReservationRepo) ExpireIfPending(_ context.Context, _ db.DBTX, id uuid.UUID, now time.Time) (*commands.TransitionResult, error) {
	return f.transition(id, func(res *reservation.Reservation) error {
		return res.Expire(now)
	})
}

func (f *fakeReservationRepo) transition(id uuid.UUID, apply func(*reservation.Reservation) error) (*commands.TransitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	if err := apply(res); err != nil {
		// The row did not match the conditional update.
		return nil, nil
	}
	return &commands.TransitionResult{HoldRef: res.HoldRef(), BikeID: res.BikeID()}, nil
}

func (f *fakeReservationRepo) MarkNotified(_ context.Context, id uuid.UUID, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res, ok := f.byID[id]; ok {
		res.MarkNotified(now)
	}
	return nil
}

func (f *fakeReservationRepo) ListPendingEndingWithin(_ context.Context, from, until time.Time, _ int32) ([]*reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*reservation.Reservation
	for _, res := range f.byID {
		if !res.IsPending() || res.EndTime() == nil || res.WasNotified() {
			continue
		}
		end := *res.EndTime()
		if end.After(from) && !end.After(until) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) ListPendingEndedBefore(_ context.Context, cutoff time.Time, _ int32) ([]*reservation.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*reservation.Reservation
	for _, res := range f.byID {
		if res.IsPending() && res.EndTime() != nil && !res.EndTime().After(cutoff) {
			out = append(out, res)
		}
	}
	return out, nil
}

type fakeTemplateRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*fixedslot.Template
	order []uuid.UUID
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{byID: make(map[uuid.UUID]*fixedslot.Template)}
}

func (f *fakeTemplateRepo) add(tpl *fixedslot.Template) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[tpl.ID()]; !ok {
		f.order = append(f.order, tpl.ID())
	}
	f.byID[tpl.ID()] = tpl
}

func (f *fakeTemplateRepo) Create(_ context.Context, _ db.DBTX, tpl *fixedslot.Template) error {
	f.add(tpl)
	return nil
}

func (f *fakeTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*fixedslot.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tpl, ok := f.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("template not found", nil, infra.KindNotFound)
	}
	return tpl, nil
}

func (f *fakeTemplateRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ fixedslot.Status, _ time.Time) error {
	return nil
}

func (f *fakeTemplateRepo) ListActiveCovering(_ context.Context, date time.Time) ([]*fixedslot.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fixedslot.Template
	for _, id := range f.order {
		if tpl := f.byID[id]; tpl.IsActive() && tpl.CoversDate(date) {
			out = append(out, tpl)
		}
	}
	return out, nil
}

type enqueuedJob struct {
	Type      string
	Payload   []byte
	RunAt     time.Time
	DedupeKey *string
}

type fakeOutbox struct {
	mu         sync.Mutex
	jobs       []enqueuedJob
	enqueueErr error
}

func (f *fakeOutbox) Enqueue(_ context.Context, _ db.DBTX, jobType string, payload []byte, runAt time.Time, dedupeKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	if dedupeKey != nil {
		for _, j := range f.jobs {
			if j.DedupeKey != nil && *j.DedupeKey == *dedupeKey {
				return nil
			}
		}
	}
	f.jobs = append(f.jobs, enqueuedJob{Type: jobType, Payload: payload, RunAt: runAt, DedupeKey: dedupeKey})
	return nil
}

func (f *fakeOutbox) byType(jobType string) []enqueuedJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []enqueuedJob
	for _, j := range f.jobs {
		if j.Type == jobType {
			out = append(out, j)
		}
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []commands.BikeStatusEvent
}

func (f *fakePublisher) Publish(_ context.Context, event commands.BikeStatusEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fakeWallet struct {
	mu       sync.Mutex
	held     []string
	released []string
	debits   []int64
	holdErr  error
	nextRef  int
}

func (f *fakeWallet) PlaceHold(_ context.Context, _ uuid.UUID, _ int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holdErr != nil {
		return "", f.holdErr
	}
	f.nextRef++
	ref := uuid.New().String()
	f.held = append(f.held, ref)
	return ref, nil
}

func (f *fakeWallet) ReleaseHold(_ context.Context, holdRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, holdRef)
	return nil
}

func (f *fakeWallet) Debit(_ context.Context, _ uuid.UUID, amountCents int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.debits = append(f.debits, amountCents)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []uuid.UUID
	failNext bool
}

func (f *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, userID)
	return nil
}

type fakeCatalog struct {
	mu       sync.Mutex
	bikes    map[uuid.UUID][]uuid.UUID
	statuses map[uuid.UUID]string
	listErr  map[uuid.UUID]error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		bikes:    make(map[uuid.UUID][]uuid.UUID),
		statuses: make(map[uuid.UUID]string),
		listErr:  make(map[uuid.UUID]error),
	}
}

func (f *fakeCatalog) ListAvailableBikes(_ context.Context, stationID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.listErr[stationID]; err != nil {
		return nil, err
	}
	return append([]uuid.UUID(nil), f.bikes[stationID]...), nil
}

func (f *fakeCatalog) MarkBikeStatus(_ context.Context, bikeID uuid.UUID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[bikeID] = status
	return nil
}
