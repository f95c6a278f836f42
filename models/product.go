package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a menu entry. TargetRole decides which station an added item
// is routed to. Archived products stay referenced by old order items.
type Product struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Category   ProductCategory `gorm:"type:enum('hot','cold','fresh','shisha','food','other');not null;default:'other'" json:"category"`
	Price      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
	TargetRole StationRole     `gorm:"type:enum('barista','shisha');not null" json:"target_role"`
	IsArchived *bool           `gorm:"not null;default:false" json:"is_archived"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name       string          `json:"name" binding:"required"`
	Category   ProductCategory `json:"category" binding:"required"`
	Price      decimal.Decimal `json:"price" binding:"required"`
	TargetRole StationRole     `json:"target_role" binding:"required"`
}

func (input *NewProduct) validate(ctx context.Context, id string) error {
	if !input.TargetRole.IsValid() {
		return errors.New("invalid target role")
	}
	if input.Price.IsNegative() {
		return errors.New("price must not be negative")
	}
	if err := utils.ValidateUnique[Product](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(ctx, ""); err != nil {
		return nil, err
	}

	db := config.GetDB()
	product := Product{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Category:   input.Category,
		Price:      input.Price,
		TargetRole: input.TargetRole,
		IsArchived: utils.NewFalse(),
	}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(ctx context.Context, id string, input *NewProduct) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"Name":       input.Name,
		"Category":   input.Category,
		"Price":      input.Price,
		"TargetRole": input.TargetRole,
	}).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func ArchiveProduct(ctx context.Context, id string) error {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Model(product).Update("is_archived", true).Error
}

// GetActiveProduct resolves a product for ordering; archived entries are
// not sellable.
func GetActiveProduct(ctx context.Context, id string) (*Product, error) {
	product, err := utils.FetchModel[Product](ctx, id)
	if err != nil {
		return nil, err
	}
	if product.IsArchived != nil && *product.IsArchived {
		return nil, utils.ErrorRecordNotFound
	}
	return product, nil
}

func ListProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()
	var products []*Product
	if err := db.WithContext(ctx).
		Where("is_archived = ?", false).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
