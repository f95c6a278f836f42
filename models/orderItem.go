package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderItem is one line of a check. UnitPrice is snapshotted when the item
// is added; later menu price changes never touch existing checks.
// Cancelled items drop out of the invoice but stay on the row for audit.
type OrderItem struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	OrderId    string          `gorm:"size:36;index;not null" json:"order_id"`
	ProductId  string          `gorm:"size:36;not null" json:"product_id"`
	Qty        int             `gorm:"not null" json:"qty"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Notes      string          `gorm:"size:255" json:"notes"`
	AssignedTo StationRole     `gorm:"type:enum('barista','shisha');not null" json:"assigned_to"`
	Status     OrderItemStatus `gorm:"type:enum('new','sent','in_progress','ready','served','cancelled');not null;default:'new'" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrderItem struct {
	ProductId string `json:"product_id" binding:"required"`
	Qty       int    `json:"qty" binding:"required,gt=0"`
	Notes     string `json:"notes"`
}

// AddOrderItemTx appends a line to the order, snapshotting the product's
// current price and station, then recalculates the invoice.
func AddOrderItemTx(tx *gorm.DB, orderId string, product *Product, input *NewOrderItem) (*OrderItem, error) {
	item := OrderItem{
		ID:         uuid.NewString(),
		OrderId:    orderId,
		ProductId:  product.ID,
		Qty:        input.Qty,
		UnitPrice:  product.Price,
		Notes:      input.Notes,
		AssignedTo: product.TargetRole,
		Status:     OrderItemStatusNew,
	}
	if err := tx.Create(&item).Error; err != nil {
		return nil, err
	}
	if _, err := RecalculateInvoiceTx(tx, orderId); err != nil {
		return nil, err
	}
	return &item, nil
}

func GetOrderItem(ctx context.Context, id string) (*OrderItem, error) {
	return utils.FetchModel[OrderItem](ctx, id)
}

func GetOrderItemTx(tx *gorm.DB, id string) (*OrderItem, error) {
	var item OrderItem
	result := tx.Where("id = ?", id).Limit(1).Find(&item)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected <= 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return &item, nil
}

func ListOrderItems(ctx context.Context, orderId string) ([]*OrderItem, error) {
	db := config.GetDB()
	var items []*OrderItem
	if err := db.WithContext(ctx).
		Where("order_id = ?", orderId).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func ListOrderItemsTx(tx *gorm.DB, orderId string) ([]*OrderItem, error) {
	var items []*OrderItem
	if err := tx.Where("order_id = ?", orderId).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListStationItems feeds the kitchen/shisha screens: everything queued for
// one station that still needs work.
func ListStationItems(ctx context.Context, station StationRole) ([]*OrderItem, error) {
	db := config.GetDB()
	var items []*OrderItem
	if err := db.WithContext(ctx).
		Where("assigned_to = ?", station).
		Where("status NOT IN ?", []OrderItemStatus{OrderItemStatusServed, OrderItemStatusCancelled}).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SetOrderItemStatusTx persists a status change and recalculates the
// owning invoice. Transition validity is the workflow's concern.
func SetOrderItemStatusTx(tx *gorm.DB, item *OrderItem, status OrderItemStatus) error {
	if err := tx.Model(item).Update("status", status).Error; err != nil {
		return err
	}
	if _, err := RecalculateInvoiceTx(tx, item.OrderId); err != nil {
		return err
	}
	return nil
}

// MoveOrderItemToOrderTx reassigns an item to another check and
// recalculates both invoices. The item keeps its identity, status and
// price snapshot: a split is a move, not a copy.
func MoveOrderItemToOrderTx(tx *gorm.DB, item *OrderItem, toOrderId string) error {
	fromOrderId := item.OrderId
	if fromOrderId == toOrderId {
		return nil
	}
	if err := tx.Model(item).Update("order_id", toOrderId).Error; err != nil {
		return err
	}
	if _, err := RecalculateInvoiceTx(tx, fromOrderId); err != nil {
		return err
	}
	if _, err := RecalculateInvoiceTx(tx, toOrderId); err != nil {
		return err
	}
	return nil
}
