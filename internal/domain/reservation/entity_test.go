//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	baseTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	holdDur  = time.Hour
)

func newFactory(t *testing.T) *reservation.Factory {
	t.Helper()
	return reservation.NewFactory(clock.NewMockClock(baseTime), holdDur)
}

func pendingOneTime(t *testing.T) *reservation.Reservation {
	t.Helper()
	res, err := newFactory(t).NewOneTime(uuid.New(), uuid.New(), nil, baseTime, nil, reservation.ZeroMoney(), nil)
	require.NoError(t, err)
	return res
}

func TestFactoryNewOneTime(t *testing.T) {
	t.Run("defaults end time to start plus hold duration", func(t *testing.T) {
		res := pendingOneTime(t)

		require.NotNil(t, res.EndTime())
		assert.Equal(t, baseTime.Add(holdDur), *res.EndTime())
		assert.Equal(t, reservation.StatusPending, res.Status())
		assert.Equal(t, reservation.OptionOneTime, res.ReservationOption())
		assert.Nil(t, res.SlotKey())
	})

	t.Run("keeps explicit end time", func(t *testing.T) {
		end := baseTime.Add(30 * time.Minute)
		res, err := newFactory(t).NewOneTime(uuid.New(), uuid.New(), nil, baseTime, &end, reservation.ZeroMoney(), nil)

		require.NoError(t, err)
		assert.Equal(t, end, *res.EndTime())
	})

	t.Run("rejects end before start", func(t *testing.T) {
		end := baseTime.Add(-time.Minute)
		_, err := newFactory(t).NewOneTime(uuid.New(), uuid.New(), nil, baseTime, &end, reservation.ZeroMoney(), nil)

		assert.ErrorIs(t, err, reservation.ErrInvalidTimeWindow)
	})
}

func TestFactoryNewFixedSlot(t *testing.T) {
	templateID := uuid.New()
	slotDate := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	start := slotDate.Add(9 * time.Hour)
	end := slotDate.Add(11 * time.Hour)

	prepaid, err := reservation.NewMoney(2500)
	require.NoError(t, err)
	holdRef := "hold-1"

	res, err := newFactory(t).NewFixedSlot(uuid.New(), uuid.New(), uuid.New(), templateID, start, end, slotDate, prepaid, &holdRef)

	require.NoError(t, err)
	require.NotNil(t, res.SlotKey())
	assert.Equal(t, templateID.String()+":2025-06-02", *res.SlotKey())
	assert.Equal(t, reservation.OptionFixedSlot, res.ReservationOption())
	require.NotNil(t, res.TemplateID())
	assert.Equal(t, templateID, *res.TemplateID())
	assert.Equal(t, int64(2500), res.Prepaid().Cents())
	require.NotNil(t, res.HoldRef())
	assert.Equal(t, holdRef, *res.HoldRef())
}

func TestFactoryNewSubscription(t *testing.T) {
	subID := uuid.New()

	res, err := newFactory(t).NewSubscription(uuid.New(), uuid.New(), nil, subID, baseTime, nil, reservation.ZeroMoney(), nil)

	require.NoError(t, err)
	require.NotNil(t, res.SubscriptionID())
	assert.Equal(t, subID, *res.SubscriptionID())
	// Subscriptions carry no hold deadline unless one is given.
	assert.Nil(t, res.EndTime())
}

func TestConfirm(t *testing.T) {
	t.Run("from pending", func(t *testing.T) {
		res := pendingOneTime(t)

		require.NoError(t, res.Confirm(baseTime.Add(time.Minute)))
		assert.Equal(t, reservation.StatusConfirmed, res.Status())
	})

	t.Run("rejected once terminal", func(t *testing.T) {
		res := pendingOneTime(t)
		require.NoError(t, res.Cancel("changed plans", baseTime))

		assert.ErrorIs(t, res.Confirm(baseTime), reservation.ErrNotPending)
		assert.Equal(t, reservation.StatusCancelled, res.Status())
	})
}

func TestCancel(t *testing.T) {
	res := pendingOneTime(t)

	require.NoError(t, res.Cancel("changed plans", baseTime.Add(time.Minute)))
	assert.Equal(t, reservation.StatusCancelled, res.Status())
	require.NotNil(t, res.CancelReason())
	assert.Equal(t, "changed plans", *res.CancelReason())

	assert.ErrorIs(t, res.Cancel("again", baseTime), reservation.ErrNotPending)
}

func TestExpire(t *testing.T) {
	t.Run("before deadline", func(t *testing.T) {
		res := pendingOneTime(t)

		assert.ErrorIs(t, res.Expire(baseTime.Add(holdDur-time.Second)), reservation.ErrNotDue)
		assert.Equal(t, reservation.StatusPending, res.Status())
	})

	t.Run("after deadline", func(t *testing.T) {
		res := pendingOneTime(t)

		require.NoError(t, res.Expire(baseTime.Add(holdDur)))
		assert.Equal(t, reservation.StatusExpired, res.Status())
	})

	t.Run("rejected once confirmed", func(t *testing.T) {
		res := pendingOneTime(t)
		require.NoError(t, res.Confirm(baseTime))

		assert.ErrorIs(t, res.Expire(baseTime.Add(2*holdDur)), reservation.ErrNotPending)
	})
}

func TestEndsWithin(t *testing.T) {
	res := pendingOneTime(t) // ends at baseTime + 1h

	assert.False(t, res.EndsWithin(baseTime, 30*time.Minute))
	assert.True(t, res.EndsWithin(baseTime, time.Hour))
	assert.True(t, res.EndsWithin(baseTime.Add(50*time.Minute), 15*time.Minute))
}

func TestMarkNotified(t *testing.T) {
	res := pendingOneTime(t)
	require.False(t, res.WasNotified())

	res.MarkNotified(baseTime.Add(45 * time.Minute))

	assert.True(t, res.WasNotified())
	require.NotNil(t, res.NotifiedAt())
	assert.Equal(t, baseTime.Add(45*time.Minute), *res.NotifiedAt())
}

func TestStatus(t *testing.T) {
	for _, s := range []reservation.Status{
		reservation.StatusPending,
		reservation.StatusActive,
		reservation.StatusConfirmed,
		reservation.StatusCancelled,
		reservation.StatusExpired,
	} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, reservation.Status("unknown").IsValid())

	assert.False(t, reservation.StatusPending.IsTerminal())
	assert.True(t, reservation.StatusCancelled.IsTerminal())
	assert.True(t, reservation.StatusExpired.IsTerminal())
}

func TestMoney(t *testing.T) {
	m, err := reservation.NewMoney(1500)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), m.Cents())
	assert.False(t, m.IsZero())

	_, err = reservation.NewMoney(-1)
	assert.Error(t, err)

	assert.True(t, reservation.ZeroMoney().IsZero())
}
