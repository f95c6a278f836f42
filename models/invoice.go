package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is the derived financial summary of one order. It is a cached
// projection over items + payments + discount, never authored directly:
// every mutation that can move the subtotal must run the recalculation.
type Invoice struct {
	OrderId   string          `gorm:"primaryKey;size:36" json:"order_id"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"subtotal"`
	Discount  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount"`
	Total     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	Paid      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"paid"`
	Status    InvoiceStatus   `gorm:"type:enum('open','paid','credit');not null;default:'open'" json:"status"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// Remaining is what is still owed on the check. Never negative.
func (inv Invoice) Remaining() decimal.Decimal {
	remaining := inv.Total.Sub(inv.Paid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func zeroInvoice(orderId string) Invoice {
	return Invoice{
		OrderId:  orderId,
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
		Paid:     decimal.Zero,
		Status:   InvoiceStatusOpen,
	}
}

// ComputeInvoice derives the invoice from the current items and the prior
// invoice state. Pure and idempotent. Rules:
//   - subtotal sums qty*unitPrice over non-cancelled items
//   - total = max(subtotal - discount, 0)
//   - credit status is sticky and never re-derived
//   - otherwise paid iff paid >= total and total > 0; a zero total has
//     nothing to settle so it stays open
func ComputeInvoice(items []*OrderItem, prev Invoice) Invoice {
	subtotal := decimal.Zero
	for _, item := range items {
		if item.Status == OrderItemStatusCancelled {
			continue
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}

	total := subtotal.Sub(prev.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	status := prev.Status
	if prev.Status != InvoiceStatusCredit {
		if prev.Paid.GreaterThanOrEqual(total) && total.IsPositive() {
			status = InvoiceStatusPaid
		} else {
			status = InvoiceStatusOpen
		}
	}

	next := prev
	next.Subtotal = subtotal
	next.Total = total
	next.Status = status
	return next
}

// RecalculateInvoiceTx recomputes and persists the invoice for orderId
// inside the caller's transaction. Callers hold the order lock.
func RecalculateInvoiceTx(tx *gorm.DB, orderId string) (*Invoice, error) {
	var items []*OrderItem
	if err := tx.Where("order_id = ?", orderId).Find(&items).Error; err != nil {
		return nil, err
	}

	prev, err := fetchInvoiceTx(tx, orderId)
	if err != nil {
		return nil, err
	}

	next := ComputeInvoice(items, prev)
	if err := tx.Save(&next).Error; err != nil {
		return nil, err
	}
	return &next, nil
}

func fetchInvoiceTx(tx *gorm.DB, orderId string) (Invoice, error) {
	var prev Invoice
	result := tx.Where("order_id = ?", orderId).Limit(1).Find(&prev)
	if result.Error != nil {
		return Invoice{}, result.Error
	}
	if result.RowsAffected <= 0 {
		return zeroInvoice(orderId), nil
	}
	return prev, nil
}

// GetInvoice returns a freshly recalculated invoice, mirroring the
// derived-state contract: reads never serve a stale projection. Unknown
// order ids fail before the recalculation persists anything.
func GetInvoice(ctx context.Context, orderId string) (*Invoice, error) {
	db := config.GetDB()
	var invoice *Invoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := GetOrderTx(tx, orderId); err != nil {
			return err
		}
		var err error
		invoice, err = RecalculateInvoiceTx(tx, orderId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// ApplyDiscountTx sets the manual discount (floored at zero) and
// recalculates.
func ApplyDiscountTx(tx *gorm.DB, orderId string, discount decimal.Decimal) (*Invoice, error) {
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	prev, err := fetchInvoiceTx(tx, orderId)
	if err != nil {
		return nil, err
	}
	prev.Discount = discount
	if err := tx.Save(&prev).Error; err != nil {
		return nil, err
	}
	return RecalculateInvoiceTx(tx, orderId)
}
