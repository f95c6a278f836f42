package workflow

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/cafe_backend/config"
	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"bitbucket.org/mmdatafocus/cafe_backend/utils"
	"gorm.io/gorm"
)

// CreateOrderUseCase opens a new check and records the audit event.
func CreateOrderUseCase(ctx context.Context, input *models.NewOrder) (*models.Order, error) {
	order, err := models.CreateOrder(ctx, input)
	if err != nil {
		return nil, err
	}

	models.AppendEvent(ctx, models.EventOrderCreated, order.CreatedBy, map[string]interface{}{
		"order_id": order.ID,
		"table":    order.TableLabel,
	})
	return order, nil
}

// AddItemUseCase appends a line to an open check. The product's current
// price and station are snapshotted onto the item.
func AddItemUseCase(ctx context.Context, orderId string, input *models.NewOrderItem) (*models.OrderItem, error) {
	actorUserId, _ := utils.GetUserIdFromContext(ctx)
	logger := config.GetLogger()

	product, err := models.GetActiveProduct(ctx, input.ProductId)
	if err != nil {
		return nil, errors.New("product not found")
	}

	release := obtainOrderGuard(ctx, "item", orderId)
	defer release()

	db := config.GetDB()
	var item *models.OrderItem
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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

		item, err = models.AddOrderItemTx(tx, orderId, product, input)
		return err
	})
	if err != nil {
		if _, isBilling := BillingKindOf(err); !isBilling {
			config.LogError(logger, "orderWorkflow.go", "AddItemUseCase", "Transaction", orderId, err)
		}
		return nil, err
	}

	models.AppendEvent(ctx, models.EventOrderItemAdded, actorUserId, map[string]interface{}{
		"order_id":   orderId,
		"item_id":    item.ID,
		"product_id": product.ID,
		"qty":        item.Qty,
	})
	return item, nil
}

// SendItemsUseCase flips the selected new items of a check to sent in one
// pass. Ids that are unknown, foreign, or past "new" are skipped.
func SendItemsUseCase(ctx context.Context, orderId string, itemIds []string) error {
	actorUserId, _ := utils.GetUserIdFromContext(ctx)
	logger := config.GetLogger()

	release := obtainOrderGuard(ctx, "item", orderId)
	defer release()

	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderPostingLock(tx, orderId); err != nil {
			return err
		}
		defer ReleaseOrderPostingLock(tx, orderId)

		items, err := models.ListOrderItemsTx(tx, orderId)
		if err != nil {
			return err
		}
		byId := map[string]*models.OrderItem{}
		for _, it := range items {
			byId[it.ID] = it
		}

		for _, id := range utils.UniqueSlice(itemIds) {
			item, ok := byId[id]
			if !ok {
				continue
			}
			if !models.CanSetItemStatus(item.Status, models.OrderItemStatusSent) {
				continue
			}
			if err := models.SetOrderItemStatusTx(tx, item, models.OrderItemStatusSent); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		config.LogError(logger, "orderWorkflow.go", "SendItemsUseCase", "Transaction", orderId, err)
		return err
	}

	models.AppendEvent(ctx, models.EventOrderItemsSent, actorUserId, map[string]interface{}{
		"order_id": orderId,
		"item_ids": itemIds,
	})
	return nil
}

// SetItemStatusUseCase advances one item through the fulfillment graph.
func SetItemStatusUseCase(ctx context.Context, itemId string, to models.OrderItemStatus) (*models.OrderItem, error) {
	actorUserId, _ := utils.GetUserIdFromContext(ctx)
	logger := config.GetLogger()

	if !to.IsValid() {
		return nil, NewBillingError(ErrKindInvalidTransition, "invalid item status")
	}

	// Resolve the owning order first; the lock is keyed by order.
	current, err := models.GetOrderItem(ctx, itemId)
	if err != nil {
		return nil, NewBillingError(ErrKindItemNotFound, "item not found")
	}
	orderId := current.OrderId

	release := obtainOrderGuard(ctx, "item", orderId)
	defer release()

	db := config.GetDB()
	var item *models.OrderItem
	var from models.OrderItemStatus
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireOrderPostingLock(tx, orderId); err != nil {
			return err
		}
		defer ReleaseOrderPostingLock(tx, orderId)

		// Re-read under the lock; the pre-lock read may be stale.
		item, err = models.GetOrderItemTx(tx, itemId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return NewBillingError(ErrKindItemNotFound, "item not found")
			}
			return err
		}
		from = item.Status
		if !models.CanSetItemStatus(from, to) {
			return NewBillingError(ErrKindInvalidTransition,
				"invalid transition: "+string(from)+" -> "+string(to))
		}
		return models.SetOrderItemStatusTx(tx, item, to)
	})
	if err != nil {
		if _, isBilling := BillingKindOf(err); !isBilling {
			config.LogError(logger, "orderWorkflow.go", "SetItemStatusUseCase", "Transaction", itemId, err)
		}
		return nil, err
	}

	models.AppendEvent(ctx, models.EventItemStatusChanged, actorUserId, map[string]interface{}{
		"item_id": itemId,
		"from":    from,
		"to":      to,
	})
	return item, nil
}
