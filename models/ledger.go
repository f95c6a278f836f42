package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerEntry is one immutable line in a customer's running account.
// Amounts are always positive; the direction lives in Kind. A positive
// balance means the customer owes the café.
type LedgerEntry struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	CustomerId  string          `gorm:"size:36;index;not null" json:"customer_id"`
	Kind        LedgerEntryKind `gorm:"type:enum('charge','payment');not null" json:"kind"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Note        string          `gorm:"size:255" json:"note"`
	OrderId     string          `gorm:"size:36;index" json:"order_id"`
	ActorUserId string          `gorm:"size:36" json:"actor_user_id"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewLedgerEntry struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   string          `json:"note"`
	// Optional back-reference; the ledger never drives order lifecycle.
	OrderId string `json:"order_id"`
}

// AddLedgerEntryTx appends one entry. Negative inputs are clamped to zero,
// not treated as reversals; a repayment must come in as kind=payment.
func AddLedgerEntryTx(tx *gorm.DB, customerId string, kind LedgerEntryKind, amount decimal.Decimal, note, orderId, actorUserId string) (*LedgerEntry, error) {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	entry := LedgerEntry{
		ID:          uuid.NewString(),
		CustomerId:  customerId,
		Kind:        kind,
		Amount:      amount,
		Note:        note,
		OrderId:     orderId,
		ActorUserId: actorUserId,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func ListLedgerByCustomer(ctx context.Context, customerId string) ([]*LedgerEntry, error) {
	db := config.GetDB()
	var entries []*LedgerEntry
	if err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// BalanceOf folds entries into a balance. Order-independent: the sum is
// the same whatever order the rows come back in.
func BalanceOf(entries []*LedgerEntry) decimal.Decimal {
	balance := decimal.Zero
	for _, e := range entries {
		if e.Kind == LedgerEntryKindCharge {
			balance = balance.Add(e.Amount)
		} else {
			balance = balance.Sub(e.Amount)
		}
	}
	return balance
}

func GetCustomerBalance(ctx context.Context, customerId string) (decimal.Decimal, error) {
	db := config.GetDB()
	var row struct {
		Balance decimal.Decimal
	}
	if err := db.WithContext(ctx).Model(&LedgerEntry{}).
		Select("COALESCE(SUM(CASE WHEN kind = 'charge' THEN amount ELSE -amount END), 0) as balance").
		Where("customer_id = ?", customerId).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Balance, nil
}

// SumCreditPostedBetween totals credit charges in a time window, for
// shift reports.
func SumCreditPostedBetween(tx *gorm.DB, from, to time.Time) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	if err := tx.Model(&LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("kind = ?", LedgerEntryKindCharge).
		Where("order_id <> ''").
		Where("created_at >= ? AND created_at < ?", from, to).
		Scan(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
