package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is an immutable cash record. Rows are only ever inserted by the
// payment workflow; there is no update or delete path.
type Payment struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	OrderId    string          `gorm:"size:36;index;not null" json:"order_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	ReceivedBy string          `gorm:"size:36;not null" json:"received_by"`
	ReceivedAt time.Time       `gorm:"autoCreateTime" json:"received_at"`
}

func ListPayments(ctx context.Context, orderId string) ([]*Payment, error) {
	db := config.GetDB()
	var payments []*Payment
	if err := db.WithContext(ctx).
		Where("order_id = ?", orderId).
		Order("received_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// SumPaymentsBetween totals cash taken in a time window, for shift reports.
func SumPaymentsBetween(tx *gorm.DB, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := tx.Model(&Payment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("received_at >= ? AND received_at < ?", from, to).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
