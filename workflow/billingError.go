package workflow

import "errors"

// BillingErrorKind is the machine-readable rejection code surfaced to the
// operator. These are business-rule rejections, never transient faults,
// and are always derived from freshly recalculated state.
type BillingErrorKind string

const (
	ErrKindOrderNotFound              BillingErrorKind = "OrderNotFound"
	ErrKindItemNotFound               BillingErrorKind = "ItemNotFound"
	ErrKindCustomerNotFound           BillingErrorKind = "CustomerNotFound"
	ErrKindOrderClosed                BillingErrorKind = "OrderClosed"
	ErrKindCreditInvoice              BillingErrorKind = "CreditInvoice"
	ErrKindAlreadySettled             BillingErrorKind = "AlreadySettled"
	ErrKindOverpayment                BillingErrorKind = "Overpayment"
	ErrKindInvalidAmount              BillingErrorKind = "InvalidAmount"
	ErrKindSplitAfterPaymentForbidden BillingErrorKind = "SplitAfterPaymentForbidden"
	ErrKindInvalidTransition          BillingErrorKind = "InvalidTransition"
)

type BillingError struct {
	Kind    BillingErrorKind
	Message string
}

func (e *BillingError) Error() string {
	return e.Message
}

func NewBillingError(kind BillingErrorKind, message string) *BillingError {
	return &BillingError{Kind: kind, Message: message}
}

// BillingKindOf extracts the kind from an error chain. The second return
// is false for infrastructure errors.
func BillingKindOf(err error) (BillingErrorKind, bool) {
	var be *BillingError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return "", false
}
