package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
)

type Customer struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Phone     string    `gorm:"size:20;index" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name  string `json:"name" binding:"required,min=2"`
	Phone string `json:"phone"`
}

func (input *NewCustomer) validate(ctx context.Context, id string) error {
	if err := utils.ValidateUnique[Customer](ctx, "name", input.Name, id); err != nil {
		return err
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return errors.New("invalid phone number")
		}
		normalized, err := utils.FormatPhoneNumber(input.Phone, utils.CountryCode)
		if err != nil {
			return errors.New("invalid phone number")
		}
		input.Phone = normalized
		if err := utils.ValidateUnique[Customer](ctx, "phone", input.Phone, id); err != nil {
			return err
		}
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	db := config.GetDB()
	customer := Customer{
		ID:    uuid.NewString(),
		Name:  input.Name,
		Phone: input.Phone,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return utils.FetchModel[Customer](ctx, id)
}

func ListCustomers(ctx context.Context) ([]*Customer, error) {
	db := config.GetDB()
	var customers []*Customer
	if err := db.WithContext(ctx).Order("name ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}
