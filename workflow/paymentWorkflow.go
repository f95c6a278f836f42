package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AddPaymentUseCase records a cash payment against an order. All
// preconditions are checked against a freshly recalculated invoice inside
// the order lock; a stale projection can never admit an overpayment.
// Full settlement auto-closes the order, which is what removes it from
// the open-order views.
func AddPaymentUseCase(ctx context.Context, orderId string, amount decimal.Decimal, receivedBy string) (*models.Payment, error) {
	ctx, span := tracer.Start(ctx, "billing.AddPayment")
	defer span.End()
	logger := config.GetLogger()

	if !amount.IsPositive() {
		return nil, NewBillingError(ErrKindInvalidAmount, "amount must be positive")
	}

	release := obtainOrderGuard(ctx, "payment", orderId)
	defer release()

	db := config.GetDB()
	var payment *models.Payment
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderPostingLock(tx, orderId); err != nil {
			return err
		}
		defer ReleaseOrderPostingLock(tx, orderId)

		order, err := models.GetOrderTx(tx, orderId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return NewBillingError(ErrKindOrderNotFound, "order not found")
			}
			return err
		}
		if order.Status.IsFinal() {
			return NewBillingError(ErrKindOrderClosed, "order is already closed")
		}

		invoice, err := models.RecalculateInvoiceTx(tx, orderId)
		if err != nil {
			return err
		}
		// A credit-posted check is settled through the customer ledger;
		// taking cash here would double-book the same debt.
		if invoice.Status == models.InvoiceStatusCredit {
			return NewBillingError(ErrKindCreditInvoice, "invoice is posted to credit; use customer ledger payment")
		}

		remaining := invoice.Remaining()
		if !remaining.IsPositive() {
			return NewBillingError(ErrKindAlreadySettled, "invoice is already fully paid")
		}
		if amount.GreaterThan(remaining) {
			return NewBillingError(ErrKindOverpayment, "amount exceeds remaining ("+remaining.String()+")")
		}

		payment = &models.Payment{
			ID:         uuid.NewString(),
			OrderId:    orderId,
			Amount:     amount,
			ReceivedBy: receivedBy,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		invoice.Paid = invoice.Paid.Add(amount)
		if invoice.Paid.GreaterThanOrEqual(invoice.Total) && invoice.Total.IsPositive() {
			invoice.Status = models.InvoiceStatusPaid
		} else {
			invoice.Status = models.InvoiceStatusOpen
		}
		if err := tx.Save(invoice).Error; err != nil {
			return err
		}

		if invoice.Status == models.InvoiceStatusPaid {
			if err := models.SetOrderStatusTx(tx, orderId, models.OrderStatusClosed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if _, isBilling := BillingKindOf(err); !isBilling {
			config.LogError(logger, "paymentWorkflow.go", "AddPaymentUseCase", "Transaction", orderId, err)
		}
		return nil, err
	}

	models.AppendEvent(ctx, models.EventPaymentAdded, receivedBy, map[string]interface{}{
		"order_id":   orderId,
		"payment_id": payment.ID,
		"amount":     payment.Amount,
	})
	return payment, nil
}

// ApplyDiscountUseCase sets the manual discount on an open check.
func ApplyDiscountUseCase(ctx context.Context, orderId string, discount decimal.Decimal) (*models.Invoice, error) {
	actorUserId, _ := utils.GetUserIdFromContext(ctx)
	logger := config.GetLogger()

	release := obtainOrderGuard(ctx, "discount", orderId)
	defer release()

	db := config.GetDB()
	var invoice *models.Invoice
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderPostingLock(tx, orderId); err != nil {
			return err
		}
		defer ReleaseOrderPostingLock(tx, orderId)

		order, err := models.GetOrderTx(tx, orderId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return NewBillingError(ErrKindOrderNotFound, "order not found")
			}
			return err
		}
		if order.Status.IsFinal() {
			return NewBillingError(ErrKindOrderClosed, "order is already closed")
		}

		invoice, err = models.ApplyDiscountTx(tx, orderId, discount)
		return err
	})
	if err != nil {
		if _, isBilling := BillingKindOf(err); !isBilling {
			config.LogError(logger, "paymentWorkflow.go", "ApplyDiscountUseCase", "Transaction", orderId, err)
		}
		return nil, err
	}

	models.AppendEvent(ctx, models.EventInvoiceDiscountApplied, actorUserId, map[string]interface{}{
		"order_id": orderId,
		"discount": invoice.Discount,
	})
	return invoice, nil
}
