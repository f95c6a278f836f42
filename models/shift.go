package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShiftAssignment struct {
	UserId string    `json:"user_id" binding:"required"`
	Role   ShiftRole `json:"role" binding:"required"`
}

// Shift is the staffing window orders are taken in. At most one shift is
// open at a time.
type Shift struct {
	ID               string            `gorm:"primaryKey;size:36" json:"id"`
	Kind             ShiftKind         `gorm:"type:enum('morning','evening');not null" json:"kind"`
	SupervisorUserId string            `gorm:"size:36;not null" json:"supervisor_user_id"`
	Assignments      []ShiftAssignment `gorm:"serializer:json" json:"assignments"`
	IsOpen           *bool             `gorm:"not null;default:true;index" json:"is_open"`
	StartedAt        time.Time         `gorm:"autoCreateTime" json:"started_at"`
	EndedAt          *time.Time        `json:"ended_at"`
	EndedBy          string            `gorm:"size:36" json:"ended_by"`
}

type NewShift struct {
	Kind             ShiftKind         `json:"kind" binding:"required"`
	SupervisorUserId string            `json:"supervisor_user_id" binding:"required"`
	Assignments      []ShiftAssignment `json:"assignments" binding:"required,dive"`
}

func (input *NewShift) validate() error {
	if input.Kind != ShiftKindMorning && input.Kind != ShiftKindEvening {
		return errors.New("invalid shift kind")
	}
	supervisors := 0
	for _, a := range input.Assignments {
		if a.Role == ShiftRoleSupervisor {
			supervisors++
		}
	}
	if supervisors != 1 {
		return errors.New("exactly one supervisor is required")
	}
	return nil
}

func OpenShift(ctx context.Context, input *NewShift) (*Shift, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	var shift Shift
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&Shift{}).Where("is_open = ?", true).Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return errors.New("a shift is already open")
		}
		isOpen := true
		shift = Shift{
			ID:               uuid.NewString(),
			Kind:             input.Kind,
			SupervisorUserId: input.SupervisorUserId,
			Assignments:      input.Assignments,
			IsOpen:           &isOpen,
		}
		return tx.Create(&shift).Error
	})
	if err != nil {
		return nil, err
	}
	return &shift, nil
}

func GetOpenShift(ctx context.Context) (*Shift, error) {
	db := config.GetDB()
	var shift Shift
	result := db.WithContext(ctx).Where("is_open = ?", true).Limit(1).Find(&shift)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected <= 0 {
		return nil, nil
	}
	return &shift, nil
}

func UpdateOpenShift(ctx context.Context, input *NewShift) (*Shift, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	shift, err := GetOpenShift(ctx)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, errors.New("no open shift")
	}

	shift.Kind = input.Kind
	shift.SupervisorUserId = input.SupervisorUserId
	shift.Assignments = input.Assignments

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(shift).Error; err != nil {
		return nil, err
	}
	return shift, nil
}

func CloseShift(ctx context.Context, endedBy string) (*Shift, error) {
	shift, err := GetOpenShift(ctx)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, errors.New("no open shift")
	}

	now := time.Now()
	isOpen := false
	shift.IsOpen = &isOpen
	shift.EndedAt = &now
	shift.EndedBy = endedBy

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(shift).Error; err != nil {
		return nil, err
	}
	return shift, nil
}

func ListShiftHistory(ctx context.Context) ([]*Shift, error) {
	db := config.GetDB()
	var shifts []*Shift
	if err := db.WithContext(ctx).
		Where("is_open = ?", false).
		Order("started_at DESC").
		Find(&shifts).Error; err != nil {
		return nil, err
	}
	return shifts, nil
}

// ShiftRoleOf resolves the role a user holds on the open shift, if any.
func (s *Shift) ShiftRoleOf(userId string) (ShiftRole, bool) {
	if s == nil {
		return "", false
	}
	for _, a := range s.Assignments {
		if a.UserId == userId {
			return a.Role, true
		}
	}
	return "", false
}
