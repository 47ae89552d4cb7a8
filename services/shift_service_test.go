package services

import (
	"context"
	"testing"
	"time"

	"restaurant-api/models"

	"github.com/stretchr/testify/require"
)

func TestClockInOnlyOnce(t *testing.T) {
	svc, _ := newTestServices(t, nil, DefaultOptions())
	ctx := context.Background()

	active, err := svc.Shifts.Active(ctx, cashier)
	require.NoError(t, err)
	require.Nil(t, active)

	shift, err := svc.Shifts.ClockIn(ctx, cashier)
	require.NoError(t, err)
	require.Equal(t, models.ShiftActive, shift.Status)

	_, err = svc.Shifts.ClockIn(ctx, cashier)
	require.ErrorIs(t, err, ErrConflict)

	active, err = svc.Shifts.Active(ctx, cashier)
	require.NoError(t, err)
	require.Equal(t, shift.ID, active.ID)
}

func TestClockOutRules(t *testing.T) {
	svc, _ := newTestServices(t, nil, DefaultOptions())
	ctx := context.Background()

	mine, err := svc.Shifts.ClockIn(ctx, cashier)
	require.NoError(t, err)
	cooks, err := svc.Shifts.ClockIn(ctx, cook)
	require.NoError(t, err)

	_, err = svc.Shifts.ClockOut(ctx, cashier, cooks.ID, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	closed, err := svc.Shifts.ClockOut(ctx, cashier, mine.ID, " quiet night ")
	require.NoError(t, err)
	require.Equal(t, models.ShiftCompleted, closed.Status)
	require.NotNil(t, closed.EndTime)
	require.Equal(t, "quiet night", closed.Notes)

	_, err = svc.Shifts.ClockOut(ctx, cashier, mine.ID, "")
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.Shifts.ClockOut(ctx, manager, cooks.ID, "closed by manager")
	require.NoError(t, err)

	_, err = svc.Shifts.ClockOut(ctx, manager, 404, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecentShifts(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	ctx := context.Background()
	base := time.Now().Add(-48 * time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Shift{
			UserID:    cashier.UserID,
			Status:    models.ShiftCompleted,
			StartTime: base.Add(time.Duration(i) * time.Hour),
		}).Error)
	}

	_, err := svc.Shifts.Recent(ctx, cashier, 2)
	require.ErrorIs(t, err, ErrUnauthorized)

	shifts, err := svc.Shifts.Recent(ctx, manager, 2)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	require.True(t, shifts[0].StartTime.After(shifts[1].StartTime))
	require.Equal(t, "Cal Cashier", shifts[0].User.Name)
}
