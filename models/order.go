package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is one check. A table can carry several checks at once after a
// split; they share the table label.
type Order struct {
	ID         string      `gorm:"primaryKey;size:36" json:"id"`
	TableLabel string      `gorm:"size:50" json:"table_label"`
	Status     OrderStatus `gorm:"type:enum('open','in_progress','ready','closed','cancelled');not null;default:'open'" json:"status"`
	CustomerId string      `gorm:"size:36;index" json:"customer_id"`
	CreatedBy  string      `gorm:"size:36;not null" json:"created_by"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrder struct {
	TableLabel string `json:"table_label"`
}

const openOrdersCacheKey = "orders:open"

// CreateOrder creates an open check and seeds its derived invoice row so
// billing reads never hit a missing invoice.
func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		return nil, errors.New("user id is required")
	}

	order := Order{
		ID:         uuid.NewString(),
		TableLabel: input.TableLabel,
		Status:     OrderStatusOpen,
		CreatedBy:  userId,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		if _, err := RecalculateInvoiceTx(tx, order.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateOpenOrdersCache()
	return &order, nil
}

func GetOrder(ctx context.Context, id string) (*Order, error) {
	return utils.FetchModel[Order](ctx, id)
}

func GetOrderTx(tx *gorm.DB, id string) (*Order, error) {
	var order Order
	result := tx.Where("id = ?", id).Limit(1).Find(&order)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected <= 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return &order, nil
}

// ListOpenOrders backs the waiter/shift views, which poll every few
// seconds, so it is served from a short-lived redis cache.
func ListOpenOrders(ctx context.Context) ([]*Order, error) {
	var orders []*Order
	if found, err := config.GetRedisObject(openOrdersCacheKey, &orders); err == nil && found {
		return orders, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("status NOT IN ?", []OrderStatus{OrderStatusClosed, OrderStatusCancelled}).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}

	_ = config.SetRedisObject(openOrdersCacheKey, orders, 5*time.Second)
	return orders, nil
}

// ListOrders includes closed checks so billing can show who paid what for
// the same table. Cancelled checks stay hidden.
func ListOrders(ctx context.Context) ([]*Order, error) {
	db := config.GetDB()
	var orders []*Order
	if err := db.WithContext(ctx).
		Where("status <> ?", OrderStatusCancelled).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func SetOrderStatus(ctx context.Context, id string, status OrderStatus) error {
	if !status.IsValid() {
		return errors.New("invalid order status")
	}
	db := config.GetDB()
	order, err := utils.FetchModel[Order](ctx, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Model(order).Update("status", status).Error; err != nil {
		return err
	}
	invalidateOpenOrdersCache()
	return nil
}

func SetOrderStatusTx(tx *gorm.DB, id string, status OrderStatus) error {
	if err := tx.Model(&Order{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return err
	}
	invalidateOpenOrdersCache()
	return nil
}

// SetOrderCustomer links/unlinks a customer; empty customerId clears the link.
func SetOrderCustomer(ctx context.Context, id string, customerId string) error {
	order, err := utils.FetchModel[Order](ctx, id)
	if err != nil {
		return err
	}
	if customerId != "" {
		if err := utils.ValidateResourceId[Customer](ctx, customerId); err != nil {
			return errors.New("customer not found")
		}
	}
	db := config.GetDB()
	return db.WithContext(ctx).Model(order).Update("customer_id", customerId).Error
}

func invalidateOpenOrdersCache() {
	_ = config.RemoveRedisKey(openOrdersCacheKey)
}
