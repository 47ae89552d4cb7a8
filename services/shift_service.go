package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-api/models"
	"restaurant-api/policy"

	"gorm.io/gorm"
)

type ShiftService struct{ deps }

// ClockIn opens a shift for the actor. A user has at most one ACTIVE shift.
func (s *ShiftService) ClockIn(ctx context.Context, actor Actor) (*models.Shift, error) {
	if err := authorize(policy.OpClockShift, actor); err != nil {
		return nil, err
	}
	var shift models.Shift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Shift{}).
			Where("user_id = ? AND status = ?", actor.UserID, models.ShiftActive).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: already clocked in", ErrConflict)
		}
		shift = models.Shift{
			UserID:    actor.UserID,
			Status:    models.ShiftActive,
			StartTime: time.Now().UTC(),
		}
		return tx.Create(&shift).Error
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("user_id", actor.UserID).WithField("shift_id", shift.ID).Info("clocked in")
	return &shift, nil
}

// ClockOut closes an ACTIVE shift. Only its owner or a manager may close it.
func (s *ShiftService) ClockOut(ctx context.Context, actor Actor, shiftID uint, notes string) (*models.Shift, error) {
	if err := authorize(policy.OpClockShift, actor); err != nil {
		return nil, err
	}
	var shift models.Shift
	if err := s.db.WithContext(ctx).First(&shift, shiftID).Error; err != nil {
		return nil, notFound(err, "shift", shiftID)
	}
	if shift.UserID != actor.UserID {
		if err := authorize(policy.OpManageShifts, actor); err != nil {
			return nil, err
		}
	}
	if shift.Status != models.ShiftActive {
		return nil, fmt.Errorf("%w: shift %d is already completed", ErrConflict, shiftID)
	}

	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND status = ?", shiftID, models.ShiftActive).
		Updates(map[string]any{
			"status":   models.ShiftCompleted,
			"end_time": now,
			"notes":    strings.TrimSpace(notes),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: shift %d is already completed", ErrConflict, shiftID)
	}
	shift.Status = models.ShiftCompleted
	shift.EndTime = &now
	shift.Notes = strings.TrimSpace(notes)
	s.log.WithField("user_id", shift.UserID).WithField("shift_id", shift.ID).Info("clocked out")
	return &shift, nil
}

// Active returns the actor's open shift, or nil when they are clocked out.
func (s *ShiftService) Active(ctx context.Context, actor Actor) (*models.Shift, error) {
	if err := authorize(policy.OpClockShift, actor); err != nil {
		return nil, err
	}
	var shift models.Shift
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", actor.UserID, models.ShiftActive).
		First(&shift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

// Recent lists the latest shifts across all staff.
func (s *ShiftService) Recent(ctx context.Context, actor Actor, limit int) ([]models.Shift, error) {
	if err := authorize(policy.OpManageShifts, actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var shifts []models.Shift
	err := s.db.WithContext(ctx).
		Preload("User").
		Order("start_time desc").
		Limit(limit).
		Find(&shifts).Error
	return shifts, err
}
