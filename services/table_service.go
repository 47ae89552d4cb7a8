package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-api/events"
	"restaurant-api/models"
	"restaurant-api/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TableService struct{ deps }

type TableInput struct {
	Number   string `json:"number" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

type ReservationInput struct {
	TableID         uint      `json:"table_id" validate:"required"`
	CustomerName    string    `json:"customer_name" validate:"required"`
	CustomerPhone   string    `json:"customer_phone"`
	GuestCount      int       `json:"guest_count" validate:"required,min=1"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=15,max=720"`
}

// List returns tables by number with their active orders.
func (s *TableService) List(ctx context.Context) ([]models.RestaurantTable, error) {
	var tables []models.RestaurantTable
	err := s.db.WithContext(ctx).
		Preload("Orders", "status IN ?", models.ActiveStatuses).
		Order("number asc").
		Find(&tables).Error
	return tables, err
}

func (s *TableService) Create(ctx context.Context, actor Actor, in TableInput) (*models.RestaurantTable, error) {
	if err := authorize(policy.OpManageTables, actor); err != nil {
		return nil, err
	}
	in.Number = strings.TrimSpace(in.Number)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.RestaurantTable{}).Where("number = ?", in.Number).Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, fmt.Errorf("%w: table %s already exists", ErrConflict, in.Number)
	}
	table := models.RestaurantTable{Number: in.Number, Capacity: in.Capacity, Status: models.TableAvailable}
	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		return nil, fmt.Errorf("create table: %w", err)
	}
	s.changed(ctx, table.ID, table.Status)
	return &table, nil
}

// SetStatus overwrites the table status from the floor plan.
func (s *TableService) SetStatus(ctx context.Context, actor Actor, id uint, status models.TableStatus) (*models.RestaurantTable, error) {
	if err := authorize(policy.OpTableStatus, actor); err != nil {
		return nil, err
	}
	if !models.ValidTableStatus(status) {
		return nil, fmt.Errorf("%w: unknown table status %q", ErrValidation, status)
	}
	res := s.db.WithContext(ctx).Model(&models.RestaurantTable{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: table %d", ErrNotFound, id)
	}
	s.changed(ctx, id, status)
	var table models.RestaurantTable
	if err := s.db.WithContext(ctx).First(&table, id).Error; err != nil {
		return nil, notFound(err, "table", id)
	}
	return &table, nil
}

// Delete removes a table that has no active orders. Past orders keep their
// record with the table reference cleared; its reservations go with it.
func (s *TableService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := authorize(policy.OpManageTables, actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status IN ?", id, models.ActiveStatuses).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: table %d has %d active order(s)", ErrConflict, id, active)
		}
		if err := tx.Model(&models.Order{}).Where("table_id = ?", id).Update("table_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("table_id = ?", id).Delete(&models.Reservation{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.RestaurantTable{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: table %d", ErrNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.TopicTables, events.TypeTableChanged, map[string]any{"table_id": id, "deleted": true})
	return nil
}

func (s *TableService) changed(ctx context.Context, id uint, status models.TableStatus) {
	s.publish(ctx, events.TopicTables, events.TypeTableChanged, map[string]any{"table_id": id, "status": status})
}

// Reservations lists every reservation by start time.
func (s *TableService) Reservations(ctx context.Context) ([]models.Reservation, error) {
	var out []models.Reservation
	err := s.db.WithContext(ctx).Preload("Table").Order("start_time asc").Find(&out).Error
	return out, err
}

// ReservationsOn lists reservations starting on the calendar day of date,
// in date's location.
func (s *TableService) ReservationsOn(ctx context.Context, date time.Time) ([]models.Reservation, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location()).UTC()
	end := start.AddDate(0, 0, 1)
	var out []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Table").
		Where("start_time >= ? AND start_time < ?", start, end).
		Order("start_time asc").
		Find(&out).Error
	return out, err
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Windows that only touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// lockRow takes a row lock on dialects that support one. sqlite already
// serialises writers on its single connection.
func lockRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Reserve books a table. The request is rejected when any CONFIRMED
// reservation on the same table overlaps it; a stored reservation without
// an end time counts as lasting the default duration.
func (s *TableService) Reserve(ctx context.Context, actor Actor, in ReservationInput) (*models.Reservation, error) {
	if err := authorize(policy.OpReservations, actor); err != nil {
		return nil, err
	}
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	duration := s.opts.ReservationDuration
	if in.DurationMinutes > 0 {
		duration = time.Duration(in.DurationMinutes) * time.Minute
	}
	start := in.StartTime.UTC()
	end := start.Add(duration)

	var created models.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var table models.RestaurantTable
		if err := lockRow(tx).First(&table, in.TableID).Error; err != nil {
			return notFound(err, "table", in.TableID)
		}
		if table.Status == models.TableOutOfOrder {
			return fmt.Errorf("%w: table %s is out of order", ErrConflict, table.Number)
		}
		if in.GuestCount > table.Capacity {
			return fmt.Errorf("%w: %d guests exceed table %s capacity %d", ErrValidation, in.GuestCount, table.Number, table.Capacity)
		}

		// narrow by start time in SQL, then apply the exact window check
		var candidates []models.Reservation
		err := tx.Where("table_id = ? AND status = ? AND start_time < ?", table.ID, models.ReservationConfirmed, end).
			Find(&candidates).Error
		if err != nil {
			return err
		}
		for _, r := range candidates {
			rEnd := r.StartTime.Add(s.opts.ReservationDuration)
			if r.EndTime != nil {
				rEnd = *r.EndTime
			}
			if Overlaps(start, end, r.StartTime, rEnd) {
				return fmt.Errorf("%w: table %s is already reserved from %s to %s",
					ErrConflict, table.Number, r.StartTime.Format(time.Kitchen), rEnd.Format(time.Kitchen))
			}
		}

		created = models.Reservation{
			TableID:       table.ID,
			CustomerName:  in.CustomerName,
			CustomerPhone: strings.TrimSpace(in.CustomerPhone),
			GuestCount:    in.GuestCount,
			StartTime:     start,
			EndTime:       &end,
			Status:        models.ReservationConfirmed,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("reservation_id", created.ID).WithField("table_id", created.TableID).Info("reservation confirmed")
	s.publish(ctx, events.TopicTables, events.TypeTableChanged, map[string]any{"table_id": created.TableID, "reservation_id": created.ID})
	return &created, nil
}

func (s *TableService) CompleteReservation(ctx context.Context, actor Actor, id uint) (*models.Reservation, error) {
	return s.closeReservation(ctx, actor, id, models.ReservationCompleted)
}

func (s *TableService) CancelReservation(ctx context.Context, actor Actor, id uint) (*models.Reservation, error) {
	return s.closeReservation(ctx, actor, id, models.ReservationCancelled)
}

func (s *TableService) closeReservation(ctx context.Context, actor Actor, id uint, to models.ReservationStatus) (*models.Reservation, error) {
	if err := authorize(policy.OpReservations, actor); err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, models.ReservationConfirmed).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	var r models.Reservation
	if err := s.db.WithContext(ctx).Preload("Table").First(&r, id).Error; err != nil {
		return nil, notFound(err, "reservation", id)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: reservation %d is %s", ErrConflict, id, r.Status)
	}
	s.publish(ctx, events.TopicTables, events.TypeTableChanged, map[string]any{"table_id": r.TableID, "reservation_id": r.ID, "status": to})
	return &r, nil
}
