package models

type OrderStatus string

const (
	OrderStatusOpen       OrderStatus = "open"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusClosed     OrderStatus = "closed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusOpen, OrderStatusInProgress, OrderStatusReady, OrderStatusClosed, OrderStatusCancelled:
		return true
	}
	return false
}

// IsFinal reports whether the order can no longer take billing mutations.
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusClosed || s == OrderStatusCancelled
}

type OrderItemStatus string

const (
	OrderItemStatusNew        OrderItemStatus = "new"
	OrderItemStatusSent       OrderItemStatus = "sent"
	OrderItemStatusInProgress OrderItemStatus = "in_progress"
	OrderItemStatusReady      OrderItemStatus = "ready"
	OrderItemStatusServed     OrderItemStatus = "served"
	OrderItemStatusCancelled  OrderItemStatus = "cancelled"
)

func (s OrderItemStatus) IsValid() bool {
	switch s {
	case OrderItemStatusNew, OrderItemStatusSent, OrderItemStatusInProgress,
		OrderItemStatusReady, OrderItemStatusServed, OrderItemStatusCancelled:
		return true
	}
	return false
}

// itemStatusTransitions is the fixed fulfillment graph. Statuses only move
// forward; served and cancelled are terminal.
var itemStatusTransitions = map[OrderItemStatus][]OrderItemStatus{
	OrderItemStatusNew:        {OrderItemStatusSent, OrderItemStatusCancelled},
	OrderItemStatusSent:       {OrderItemStatusInProgress, OrderItemStatusCancelled},
	OrderItemStatusInProgress: {OrderItemStatusReady, OrderItemStatusCancelled},
	OrderItemStatusReady:      {OrderItemStatusServed, OrderItemStatusCancelled},
	OrderItemStatusServed:     {},
	OrderItemStatusCancelled:  {},
}

func CanSetItemStatus(from, to OrderItemStatus) bool {
	for _, allowed := range itemStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type InvoiceStatus string

const (
	InvoiceStatusOpen   InvoiceStatus = "open"
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusCredit InvoiceStatus = "credit"
)

type StationRole string

const (
	StationRoleBarista StationRole = "barista"
	StationRoleShisha  StationRole = "shisha"
)

func (s StationRole) IsValid() bool {
	return s == StationRoleBarista || s == StationRoleShisha
}

type LedgerEntryKind string

const (
	LedgerEntryKindCharge  LedgerEntryKind = "charge"
	LedgerEntryKindPayment LedgerEntryKind = "payment"
)

type BaseRole string

const (
	BaseRoleOwner BaseRole = "owner"
	BaseRoleStaff BaseRole = "staff"
)

type ShiftRole string

const (
	ShiftRoleSupervisor ShiftRole = "supervisor"
	ShiftRoleWaiter     ShiftRole = "waiter"
	ShiftRoleBarista    ShiftRole = "barista"
	ShiftRoleShisha     ShiftRole = "shisha"
)

type ShiftKind string

const (
	ShiftKindMorning ShiftKind = "morning"
	ShiftKindEvening ShiftKind = "evening"
)

type ProductCategory string

const (
	ProductCategoryHot    ProductCategory = "hot"
	ProductCategoryCold   ProductCategory = "cold"
	ProductCategoryFresh  ProductCategory = "fresh"
	ProductCategoryShisha ProductCategory = "shisha"
	ProductCategoryFood   ProductCategory = "food"
	ProductCategoryOther  ProductCategory = "other"
)

type ActivityEventType string

const (
	EventShiftOpened             ActivityEventType = "shift.opened"
	EventShiftClosed             ActivityEventType = "shift.closed"
	EventShiftAssignmentsUpdated ActivityEventType = "shift.assignments_updated"
	EventStaffCreated            ActivityEventType = "staff.created"
	EventStaffUpdated            ActivityEventType = "staff.updated"
	EventStaffArchived           ActivityEventType = "staff.archived"
	EventProductCreated          ActivityEventType = "product.created"
	EventProductUpdated          ActivityEventType = "product.updated"
	EventProductArchived         ActivityEventType = "product.archived"
	EventOrderCreated            ActivityEventType = "order.created"
	EventOrderItemAdded          ActivityEventType = "order.item_added"
	EventOrderItemsSent          ActivityEventType = "order.items_sent"
	EventItemStatusChanged       ActivityEventType = "item.status_changed"
	EventInvoiceDiscountApplied  ActivityEventType = "invoice.discount_applied"
	EventPaymentAdded            ActivityEventType = "payment.added"
	EventInvoicePostedToCredit   ActivityEventType = "invoice.posted_to_credit"
	EventCustomerCreated         ActivityEventType = "customer.created"
	EventLedgerCharge            ActivityEventType = "ledger.charge"
	EventLedgerPayment           ActivityEventType = "ledger.payment"
)
