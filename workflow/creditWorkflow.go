package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PostToCreditUseCase converts an order's remaining balance into a durable
// charge on the customer's ledger and closes the order. The invoice moves
// to the sticky `credit` status, which recalculation never reverts; from
// then on the debt lives in the ledger and order-level payments are
// refused.
//
// The charge amount is computed once, here, and is immutable afterwards.
// Re-posting an already-credited order degrades to a no-op (empty entry
// id), never a duplicate charge: the sticky credit status is the marker,
// since paid is never advanced by a posting.
func PostToCreditUseCase(ctx context.Context, orderId string, customerId string, note string, actorUserId string) (string, error) {
	ctx, span := tracer.Start(ctx, "billing.PostToCredit")
	defer span.End()
	logger := config.GetLogger()

	if err := utils.ValidateResourceId[models.Customer](ctx, customerId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return "", NewBillingError(ErrKindCustomerNotFound, "customer not found")
		}
		return "", err
	}

	release := obtainOrderGuard(ctx, "credit", orderId)
	defer release()

	db := config.GetDB()
	var entryId string
	var charged decimal.Decimal
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderPostingLock(tx, orderId); err != nil {
			return err
		}
		defer ReleaseOrderPostingLock(tx, orderId)

		if _, err := models.GetOrderTx(tx, orderId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return NewBillingError(ErrKindOrderNotFound, "order not found")
			}
			return err
		}

		invoice, err := models.RecalculateInvoiceTx(tx, orderId)
		if err != nil {
			return err
		}

		// Already credit-posted: the debt lives in the ledger and paid is
		// never advanced by the posting, so remaining stays positive here.
		// Re-posting must be a no-op, never a second charge.
		if invoice.Status == models.InvoiceStatusCredit {
			entryId = ""
			return nil
		}

		remaining := invoice.Remaining()
		if !remaining.IsPositive() {
			// Fully-paid order routed here by mistake: force the settled
			// status and post nothing.
			invoice.Status = models.InvoiceStatusPaid
			if err := tx.Save(invoice).Error; err != nil {
				return err
			}
			entryId = ""
			return nil
		}

		invoice.Status = models.InvoiceStatusCredit
		if err := tx.Save(invoice).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", orderId).
			Update("customer_id", customerId).Error; err != nil {
			return err
		}
		if err := models.SetOrderStatusTx(tx, orderId, models.OrderStatusClosed); err != nil {
			return err
		}

		entry, err := models.AddLedgerEntryTx(tx, customerId, models.LedgerEntryKindCharge, remaining, note, orderId, actorUserId)
		if err != nil {
			return err
		}
		entryId = entry.ID
		charged = entry.Amount
		return nil
	})
	if err != nil {
		if _, isBilling := BillingKindOf(err); !isBilling {
			config.LogError(logger, "creditWorkflow.go", "PostToCreditUseCase", "Transaction", orderId, err)
		}
		return "", err
	}

	if entryId != "" {
		models.AppendEvent(ctx, models.EventInvoicePostedToCredit, actorUserId, map[string]interface{}{
			"order_id":    orderId,
			"customer_id": customerId,
			"entry_id":    entryId,
			"amount":      charged,
		})
	}
	return entryId, nil
}

// RecordLedgerChargeUseCase appends a manual charge to a customer's
// ledger (e.g. an off-order debt).
func RecordLedgerChargeUseCase(ctx context.Context, customerId string, input *models.NewLedgerEntry) (*models.LedgerEntry, error) {
	return recordLedgerEntry(ctx, customerId, models.LedgerEntryKindCharge, models.EventLedgerCharge, input)
}

// RecordLedgerPaymentUseCase records a customer repayment. This is the
// settlement path for credit-posted orders.
func RecordLedgerPaymentUseCase(ctx context.Context, customerId string, input *models.NewLedgerEntry) (*models.LedgerEntry, error) {
	return recordLedgerEntry(ctx, customerId, models.LedgerEntryKindPayment, models.EventLedgerPayment, input)
}

func recordLedgerEntry(ctx context.Context, customerId string, kind models.LedgerEntryKind, eventType models.ActivityEventType, input *models.NewLedgerEntry) (*models.LedgerEntry, error) {
	actorUserId, _ := utils.GetUserIdFromContext(ctx)
	logger := config.GetLogger()

	if !input.Amount.IsPositive() {
		return nil, NewBillingError(ErrKindInvalidAmount, "amount must be positive")
	}
	if err := utils.ValidateResourceId[models.Customer](ctx, customerId); err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, NewBillingError(ErrKindCustomerNotFound, "customer not found")
		}
		return nil, err
	}

	db := config.GetDB()
	var entry *models.LedgerEntry
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = models.AddLedgerEntryTx(tx, customerId, kind, input.Amount, input.Note, input.OrderId, actorUserId)
		return err
	})
	if err != nil {
		config.LogError(logger, "creditWorkflow.go", "recordLedgerEntry", string(kind), customerId, err)
		return nil, err
	}

	models.AppendEvent(ctx, eventType, actorUserId, map[string]interface{}{
		"customer_id": customerId,
		"entry_id":    entry.ID,
		"amount":      entry.Amount,
		"note":        entry.Note,
		"order_id":    entry.OrderId,
	})
	return entry, nil
}
