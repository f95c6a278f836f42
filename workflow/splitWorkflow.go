package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SplitOrderUseCase moves the selected items into a NEW check under the
// SAME table, so each person can pay separately while the table stays one
// physical unit. A split is a move, not a copy: items keep their identity,
// status and price snapshot, and the combined total of both checks equals
// the pre-split total.
//
// Splitting is refused once any payment exists on the source — after a
// partial payment there is no unambiguous answer to "who paid for what".
// The check runs before any mutation.
func SplitOrderUseCase(ctx context.Context, orderId string, itemIds []string, createdBy string) (*models.Order, error) {
	ctx, span := tracer.Start(ctx, "billing.SplitOrder")
	defer span.End()
	logger := config.GetLogger()

	release := obtainOrderGuard(ctx, "split", orderId)
	defer release()

	db := config.GetDB()
	var dst *models.Order
	var moved int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderPostingLocks(tx, orderId); err != nil {
			return err
		}
		defer ReleaseOrderPostingLocks(tx, orderId)

		src, err := models.GetOrderTx(tx, orderId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return NewBillingError(ErrKindOrderNotFound, "order not found")
			}
			return err
		}

		srcInvoice, err := models.RecalculateInvoiceTx(tx, orderId)
		if err != nil {
			return err
		}
		if srcInvoice.Paid.IsPositive() {
			return NewBillingError(ErrKindSplitAfterPaymentForbidden,
				"order has payments; split before taking any payment")
		}

		// New check inherits the table label; the splitting actor is its
		// creator. Discount stays on the source, the new check starts at 0.
		dst = &models.Order{
			ID:         uuid.NewString(),
			TableLabel: src.TableLabel,
			Status:     models.OrderStatusOpen,
			CreatedBy:  createdBy,
		}
		if err := tx.Create(dst).Error; err != nil {
			return err
		}
		if _, err := models.RecalculateInvoiceTx(tx, dst.ID); err != nil {
			return err
		}
		if err := AcquireOrderPostingLocks(tx, dst.ID); err != nil {
			return err
		}
		defer ReleaseOrderPostingLocks(tx, dst.ID)

		// Ids that are unknown or belong to another check are skipped, so
		// a stale selection in the UI cannot fail the whole split.
		for _, itemId := range utils.UniqueSlice(itemIds) {
			item, err := models.GetOrderItemTx(tx, itemId)
			if err != nil {
				if errors.Is(err, utils.ErrorRecordNotFound) {
					continue
				}
				return err
			}
			if item.OrderId != orderId {
				continue
			}
			if err := models.MoveOrderItemToOrderTx(tx, item, dst.ID); err != nil {
				return err
			}
			moved++
		}

		// Drained source checks are closed so they stop cluttering the
		// open-order views.
		remainingItems, err := models.ListOrderItemsTx(tx, orderId)
		if err != nil {
			return err
		}
		hasRealItems := false
		for _, it := range remainingItems {
			if it.Status != models.OrderItemStatusCancelled {
				hasRealItems = true
				break
			}
		}
		srcInvoice, err = models.RecalculateInvoiceTx(tx, orderId)
		if err != nil {
			return err
		}
		if !hasRealItems || !srcInvoice.Total.IsPositive() {
			if err := models.SetOrderStatusTx(tx, orderId, models.OrderStatusClosed); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if _, isBilling := BillingKindOf(err); !isBilling {
			config.LogError(logger, "splitWorkflow.go", "SplitOrderUseCase", "Transaction", orderId, err)
		}
		return nil, err
	}

	models.AppendEvent(ctx, models.EventOrderCreated, createdBy, map[string]interface{}{
		"order_id":   dst.ID,
		"table":      dst.TableLabel,
		"split_from": orderId,
		"item_count": moved,
	})
	return dst, nil
}
