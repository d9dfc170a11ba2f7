package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS bikes (
	id UUID PRIMARY KEY,
	station_id UUID NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'available',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_bikes_station_status ON bikes(station_id, status);

CREATE TABLE IF NOT EXISTS fixed_slot_templates (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	station_id UUID NOT NULL,
	slot_start TEXT NOT NULL,
	slot_end TEXT NOT NULL,
	days_of_week SMALLINT[] NOT NULL,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_templates_station_status ON fixed_slot_templates(station_id, status);
CREATE INDEX IF NOT EXISTS idx_templates_user ON fixed_slot_templates(user_id);

CREATE TABLE IF NOT EXISTS reservations (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	station_id UUID NOT NULL,
	bike_id UUID,
	reservation_option TEXT NOT NULL,
	fixed_slot_template_id UUID REFERENCES fixed_slot_templates(id),
	subscription_id UUID,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	prepaid_cents BIGINT NOT NULL DEFAULT 0,
	hold_ref TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	cancel_reason TEXT,
	notified_at TIMESTAMPTZ,
	slot_key TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reservations_user ON reservations(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reservations_pending_end ON reservations(end_time) WHERE status = 'pending';
-- one reservation per template per run date; assignment re-runs hit this
CREATE UNIQUE INDEX IF NOT EXISTS uq_reservations_slot_key ON reservations(slot_key) WHERE slot_key IS NOT NULL;

CREATE TABLE IF NOT EXISTS outbox_jobs (
	id UUID PRIMARY KEY,
	type TEXT NOT NULL,
	payload JSONB NOT NULL,
	run_at TIMESTAMPTZ NOT NULL,
	dedupe_key TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	attempt_count INT NOT NULL DEFAULT 0,
	claimed_at TIMESTAMPTZ,
	last_error TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- duplicate enqueues of the same logical job collapse at insert time
CREATE UNIQUE INDEX IF NOT EXISTS uq_outbox_dedupe ON outbox_jobs(dedupe_key) WHERE dedupe_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_outbox_due ON outbox_jobs(type, run_at) WHERE status IN ('pending', 'running');

CREATE TABLE IF NOT EXISTS outbox_dead_letters (
	id UUID PRIMARY KEY,
	job_id UUID NOT NULL,
	type TEXT NOT NULL,
	payload JSONB NOT NULL,
	run_at TIMESTAMPTZ NOT NULL,
	dedupe_key TEXT,
	attempt_count INT NOT NULL,
	failure_reason TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_dead_letters_type ON outbox_dead_letters(type, created_at DESC);
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
