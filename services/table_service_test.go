package services

import (
	"context"
	"testing"
	"time"

	"restaurant-api/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func at(hour int) time.Time {
	return time.Date(2026, time.March, 14, hour, 0, 0, 0, time.UTC)
}

func reserve(svc *Services, tableID uint, start time.Time, minutes int) (*models.Reservation, error) {
	return svc.Tables.Reserve(context.Background(), cashier, ReservationInput{
		TableID:         tableID,
		CustomerName:    "Okafor",
		GuestCount:      2,
		StartTime:       start,
		DurationMinutes: minutes,
	})
}

func TestReservationOverlapIsRejected(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	table := seedTable(t, db, "5", 4)

	_, err := reserve(svc, table.ID, at(19), 120)
	require.NoError(t, err)

	_, err = reserve(svc, table.ID, at(18), 120)
	require.ErrorIs(t, err, ErrConflict)
}

func TestReservationOverlapAcrossUTCOffsets(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	table := seedTable(t, db, "5", 4)
	karachi := time.FixedZone("PKT", 5*60*60)

	// 21:00+05:00 is 16:00Z to 18:00Z
	first, err := reserve(svc, table.ID, time.Date(2026, time.March, 14, 21, 0, 0, 0, karachi), 120)
	require.NoError(t, err)
	require.Equal(t, at(16), first.StartTime.UTC())

	_, err = reserve(svc, table.ID, at(17), 120)
	require.ErrorIs(t, err, ErrConflict)

	_, err = reserve(svc, table.ID, at(18), 120)
	require.NoError(t, err)

	day, err := svc.Tables.ReservationsOn(context.Background(), time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, day, 2)
}

func TestReserveLocksTableRowOnPostgres(t *testing.T) {
	pg, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=rms dbname=rms sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	stmt := lockRow(pg).First(&models.RestaurantTable{}, 5).Statement
	require.Contains(t, stmt.SQL.String(), "FOR UPDATE")

	lite := openTestDB(t).Session(&gorm.Session{DryRun: true})
	stmt = lockRow(lite).First(&models.RestaurantTable{}, 5).Statement
	require.NotContains(t, stmt.SQL.String(), "FOR UPDATE")
}

func TestReservationTouchingBoundarySucceeds(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	table := seedTable(t, db, "5", 4)

	_, err := reserve(svc, table.ID, at(18), 120)
	require.NoError(t, err)

	r, err := reserve(svc, table.ID, at(20), 120)
	require.NoError(t, err)
	require.Equal(t, at(22), r.EndTime.UTC())
	require.Equal(t, models.ReservationConfirmed, r.Status)
}

func TestReservationConflictIgnoresOtherTablesAndClosedBookings(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	five := seedTable(t, db, "5", 4)
	six := seedTable(t, db, "6", 4)
	ctx := context.Background()

	first, err := reserve(svc, five.ID, at(19), 120)
	require.NoError(t, err)
	_, err = reserve(svc, six.ID, at(19), 120)
	require.NoError(t, err)

	_, err = svc.Tables.CancelReservation(ctx, cashier, first.ID)
	require.NoError(t, err)
	_, err = reserve(svc, five.ID, at(19), 60)
	require.NoError(t, err)
}

func TestStoredReservationWithoutEndUsesDefaultDuration(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	table := seedTable(t, db, "5", 4)
	require.NoError(t, db.Create(&models.Reservation{
		TableID:      table.ID,
		CustomerName: "Legacy",
		GuestCount:   2,
		StartTime:    at(12),
		Status:       models.ReservationConfirmed,
	}).Error)

	_, err := reserve(svc, table.ID, at(13), 30)
	require.ErrorIs(t, err, ErrConflict)

	_, err = reserve(svc, table.ID, at(14), 30)
	require.NoError(t, err)
}

func TestReservationValidation(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	small := seedTable(t, db, "2", 2)
	ctx := context.Background()

	_, err := svc.Tables.Reserve(ctx, cashier, ReservationInput{
		TableID: small.ID, CustomerName: "Big Party", GuestCount: 6, StartTime: at(19),
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Tables.Reserve(ctx, cashier, ReservationInput{
		TableID: 404, CustomerName: "Nobody", GuestCount: 1, StartTime: at(19),
	})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Tables.Reserve(ctx, cook, ReservationInput{
		TableID: small.ID, CustomerName: "Cook", GuestCount: 1, StartTime: at(19),
	})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCompleteAndCancelOnlyFromConfirmed(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	table := seedTable(t, db, "5", 4)
	ctx := context.Background()

	r, err := reserve(svc, table.ID, at(19), 0)
	require.NoError(t, err)
	require.Equal(t, at(21), r.EndTime.UTC())

	done, err := svc.Tables.CompleteReservation(ctx, cashier, r.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReservationCompleted, done.Status)

	_, err = svc.Tables.CancelReservation(ctx, cashier, r.ID)
	require.ErrorIs(t, err, ErrConflict)
	_, err = svc.Tables.CancelReservation(ctx, cashier, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReservationsOnDay(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	table := seedTable(t, db, "5", 4)

	_, err := reserve(svc, table.ID, at(19), 60)
	require.NoError(t, err)
	_, err = reserve(svc, table.ID, at(19).AddDate(0, 0, 1), 60)
	require.NoError(t, err)

	day, err := svc.Tables.ReservationsOn(context.Background(), at(8))
	require.NoError(t, err)
	require.Len(t, day, 1)
	require.NotNil(t, day[0].Table)

	all, err := svc.Tables.Reservations(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestOverlaps(t *testing.T) {
	require.True(t, Overlaps(at(18), at(20), at(19), at(21)))
	require.True(t, Overlaps(at(19), at(21), at(18), at(20)))
	require.True(t, Overlaps(at(18), at(22), at(19), at(20)))
	require.False(t, Overlaps(at(18), at(20), at(20), at(22)))
	require.False(t, Overlaps(at(20), at(22), at(18), at(20)))
}

func TestTableLifecycle(t *testing.T) {
	svc, db := newTestServices(t, nil, DefaultOptions())
	ctx := context.Background()

	_, err := svc.Tables.Create(ctx, cashier, TableInput{Number: "9", Capacity: 4})
	require.ErrorIs(t, err, ErrUnauthorized)

	table, err := svc.Tables.Create(ctx, manager, TableInput{Number: " 9 ", Capacity: 4})
	require.NoError(t, err)
	require.Equal(t, "9", table.Number)
	require.Equal(t, models.TableAvailable, table.Status)

	_, err = svc.Tables.Create(ctx, manager, TableInput{Number: "9", Capacity: 2})
	require.ErrorIs(t, err, ErrConflict)

	got, err := svc.Tables.SetStatus(ctx, cashier, table.ID, models.TableReserved)
	require.NoError(t, err)
	require.Equal(t, models.TableReserved, got.Status)
	_, err = svc.Tables.SetStatus(ctx, cashier, table.ID, "BROKEN")
	require.ErrorIs(t, err, ErrValidation)

	shop := seedBurgerShop(t, db)
	order := placeBurger(t, svc, shop, uintPtr(table.ID))
	require.ErrorIs(t, svc.Tables.Delete(ctx, manager, table.ID), ErrConflict)

	list, err := svc.Tables.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Orders, 1)

	_, err = svc.Orders.UpdateStatus(ctx, cook, order.ID, models.StatusCancelled, "")
	require.NoError(t, err)
	require.NoError(t, svc.Tables.Delete(ctx, manager, table.ID))

	var kept models.Order
	require.NoError(t, db.First(&kept, order.ID).Error)
	require.Nil(t, kept.TableID)
}
