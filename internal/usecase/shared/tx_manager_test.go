//go:build unit

package shared

import (
	"context"
	"fmt"
	"testing"

	"bike-reserve/internal/infra/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPool struct{}

func (stubPool) Begin(_ context.Context) (pgx.Tx, error) { return &stubTx{}, nil }
func (stubPool) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (stubPool) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (stubPool) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return nil }

type stubTx struct{}

func (t *stubTx) Begin(_ context.Context) (pgx.Tx, error) { return t, nil }
func (t *stubTx) Commit(_ context.Context) error          { return nil }
func (t *stubTx) Rollback(_ context.Context) error        { return pgx.ErrTxClosed }
func (t *stubTx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                             { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *stubTx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}
func (t *stubTx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return nil }
func (t *stubTx) Conn() *pgx.Conn                                        { return nil }

var _ db.Pool = stubPool{}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestRunInTxReturnsResult(t *testing.T) {
	got, err := RunInTx(context.Background(), stubPool{}, func(_ db.DBTX) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRunInTxWithRetryRecoversFromSerializationFailure(t *testing.T) {
	calls := 0
	got, err := RunInTxWithRetry(context.Background(), stubPool{}, 3, func(_ db.DBTX) (string, error) {
		calls++
		if calls < 3 {
			return "", serializationFailure()
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 3, calls)
}

func TestRunInTxWithRetryStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	_, err := RunInTxWithRetry(context.Background(), stubPool{}, 3, func(_ db.DBTX) (struct{}, error) {
		calls++
		return struct{}{}, context.DeadlineExceeded
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestRunInTxWithRetryExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := RunInTxWithRetry(context.Background(), stubPool{}, 2, func(_ db.DBTX) (struct{}, error) {
		calls++
		return struct{}{}, serializationFailure()
	})

	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 3, calls)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, true},
		{"wrapped serialization failure", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40001"}), true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"plain error", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
