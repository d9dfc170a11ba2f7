package outbox

import (
	"context"
	"time"

	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidPayload = errs.New("invalid job payload")

// Job is one durable unit of deferred work. It is written in the same
// transaction as the domain change that causes it (outbox pattern).
type Job struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	RunAt        time.Time
	DedupeKey    *string
	Status       string
	AttemptCount int32
	ClaimedAt    *time.Time
	LastError    *string
	CreatedAt    time.Time
}

// DeadLetter mirrors an exhausted job plus the reason it was parked.
type DeadLetter struct {
	ID            uuid.UUID
	JobID         uuid.UUID
	Type          string
	Payload       []byte
	RunAt         time.Time
	DedupeKey     *string
	AttemptCount  int32
	FailureReason string
	CreatedAt     time.Time
}

// PayloadValidator checks a payload against its type's schema before the row
// is written. A failure here is a programming error, never retried.
type PayloadValidator func(jobType string, payload []byte) error

type Store struct {
	pool     *pgxpool.Pool
	validate PayloadValidator
}

func NewStore(pool *pgxpool.Pool, validate PayloadValidator) *Store {
	return &Store{
		pool:     pool,
		validate: validate,
	}
}

// Enqueue writes one job row inside the caller's transaction. A duplicate
// dedupe key collapses silently: the logical job is already scheduled.
func (s *Store) Enqueue(ctx context.Context, tx db.DBTX, jobType string, payload []byte, runAt time.Time, dedupeKey *string) error {
	if s.validate != nil {
		if err := s.validate(jobType, payload); err != nil {
			return errs.Mark(err, ErrInvalidPayload)
		}
	}

	_, err := tx.Exec(ctx, `
INSERT INTO outbox_jobs(id, type, payload, run_at, dedupe_key)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (dedupe_key) WHERE dedupe_key IS NOT NULL DO NOTHING`,
		uuid.New(), jobType, payload, runAt, dedupeKey,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to enqueue outbox job", err)
	}
	return nil
}

// ClaimDue claims up to limit due jobs of one type, skipping rows other
// workers hold. A running claim older than staleAfter is presumed crashed
// and is reclaimed. Claiming counts as an attempt.
func (s *Store) ClaimDue(ctx context.Context, jobType string, limit int32, staleAfter time.Duration, now time.Time) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `
UPDATE outbox_jobs SET
	status = 'running',
	claimed_at = $3,
	attempt_count = attempt_count + 1,
	updated_at = $3
WHERE id IN (
	SELECT id FROM outbox_jobs
	WHERE type = $1
	  AND run_at <= $3
	  AND (status = 'pending' OR (status = 'running' AND claimed_at < $4))
	ORDER BY run_at
	LIMIT $2
	FOR UPDATE SKIP LOCKED
)
RETURNING id, type, payload, run_at, dedupe_key, status, attempt_count, claimed_at, last_error, created_at`,
		jobType, limit, now, now.Add(-staleAfter),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to claim due jobs", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID, &j.Type, &j.Payload, &j.RunAt, &j.DedupeKey,
			&j.Status, &j.AttemptCount, &j.ClaimedAt, &j.LastError, &j.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan claimed job", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read claimed jobs", err)
	}
	return jobs, nil
}

func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE outbox_jobs SET status = 'completed', updated_at = $2 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark job completed", err)
	}
	return nil
}

// Reschedule puts a failed job back in the queue for a later attempt.
func (s *Store) Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
UPDATE outbox_jobs SET
	status = 'pending',
	run_at = $2,
	claimed_at = NULL,
	last_error = $3,
	updated_at = $4
WHERE id = $1`,
		id, runAt, lastError, now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to reschedule job", err)
	}
	return nil
}

// MoveToDeadLetter parks an exhausted job for operator inspection. The job
// row and its dead-letter copy move in one transaction.
func (s *Store) MoveToDeadLetter(ctx context.Context, job Job, reason string, now time.Time) error {
	_, err := shared.RunInTx(ctx, s.pool, func(tx db.DBTX) (struct{}, error) {
		if _, err := tx.Exec(ctx, `
INSERT INTO outbox_dead_letters(id, job_id, type, payload, run_at, dedupe_key, attempt_count, failure_reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), job.ID, job.Type, job.Payload, job.RunAt, job.DedupeKey, job.AttemptCount, reason, now,
		); err != nil {
			return struct{}{}, infra.WrapRepoErr("failed to insert dead letter", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM outbox_jobs WHERE id = $1`, job.ID); err != nil {
			return struct{}{}, infra.WrapRepoErr("failed to delete dead-lettered job", err)
		}
		return struct{}{}, nil
	})
	return err
}

func (s *Store) ListDeadLetters(ctx context.Context, jobType string, limit int32) ([]DeadLetter, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, job_id, type, payload, run_at, dedupe_key, attempt_count, failure_reason, created_at
FROM outbox_dead_letters
WHERE type = $1
ORDER BY created_at DESC
LIMIT $2`,
		jobType, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list dead letters", err)
	}
	defer rows.Close()

	var letters []DeadLetter
	for rows.Next() {
		var dl DeadLetter
		if err := rows.Scan(
			&dl.ID, &dl.JobID, &dl.Type, &dl.Payload, &dl.RunAt,
			&dl.DedupeKey, &dl.AttemptCount, &dl.FailureReason, &dl.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan dead letter", err)
		}
		letters = append(letters, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read dead letters", err)
	}
	return letters, nil
}

func (s *Store) DeleteDeadLetter(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM outbox_dead_letters WHERE id = $1`, id)
	if err != nil {
		return infra.WrapRepoErr("failed to delete dead letter", err)
	}
	return nil
}
