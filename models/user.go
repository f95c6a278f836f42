package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
)

// UserProfile is a staff member. PIN login only; identity beyond the PIN
// hash (cookies, sessions) is handled by the caller of /auth.
type UserProfile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	BaseRole  BaseRole  `gorm:"type:enum('owner','staff');not null;default:'staff'" json:"base_role"`
	PinHash   string    `gorm:"size:100" json:"-"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewStaff struct {
	Name     string   `json:"name" binding:"required,min=2"`
	BaseRole BaseRole `json:"base_role" binding:"required"`
	Pin      string   `json:"pin" binding:"required,min=4"`
}

func CreateStaff(ctx context.Context, input *NewStaff) (*UserProfile, error) {
	if input.BaseRole != BaseRoleOwner && input.BaseRole != BaseRoleStaff {
		return nil, errors.New("invalid base role")
	}
	if err := utils.ValidateUnique[UserProfile](ctx, "name", input.Name, ""); err != nil {
		return nil, err
	}

	hash, err := utils.HashPin(input.Pin)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	user := UserProfile{
		ID:       uuid.NewString(),
		Name:     input.Name,
		BaseRole: input.BaseRole,
		PinHash:  string(hash),
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetStaff(ctx context.Context, id string) (*UserProfile, error) {
	return utils.FetchModel[UserProfile](ctx, id)
}

func ListStaff(ctx context.Context) ([]*UserProfile, error) {
	db := config.GetDB()
	var users []*UserProfile
	if err := db.WithContext(ctx).Order("name ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func SetStaffPin(ctx context.Context, id string, pin string) error {
	user, err := utils.FetchModel[UserProfile](ctx, id)
	if err != nil {
		return err
	}
	hash, err := utils.HashPin(pin)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Model(user).Update("pin_hash", string(hash)).Error
}

func SetStaffActive(ctx context.Context, id string, isActive bool) error {
	user, err := utils.FetchModel[UserProfile](ctx, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Model(user).Update("is_active", isActive).Error
}

// AuthenticateStaff verifies an active staff member's PIN. The same error
// comes back for a missing user and a wrong PIN.
func AuthenticateStaff(ctx context.Context, userId string, pin string) (*UserProfile, error) {
	user, err := utils.FetchModel[UserProfile](ctx, userId)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("invalid credentials")
	}
	if err := utils.ComparePin(user.PinHash, pin); err != nil {
		return nil, errors.New("invalid credentials")
	}
	return user, nil
}
