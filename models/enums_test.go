package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/cafe_backend/models"
)

func TestCanSetItemStatus_ForwardPath(t *testing.T) {
	path := []models.OrderItemStatus{
		models.OrderItemStatusNew,
		models.OrderItemStatusSent,
		models.OrderItemStatusInProgress,
		models.OrderItemStatusReady,
		models.OrderItemStatusServed,
	}
	for i := 0; i < len(path)-1; i++ {
		if !models.CanSetItemStatus(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanSetItemStatus_NoSkippingOrRewinding(t *testing.T) {
	cases := []struct{ from, to models.OrderItemStatus }{
		{models.OrderItemStatusNew, models.OrderItemStatusReady},
		{models.OrderItemStatusNew, models.OrderItemStatusServed},
		{models.OrderItemStatusSent, models.OrderItemStatusNew},
		{models.OrderItemStatusReady, models.OrderItemStatusSent},
		{models.OrderItemStatusServed, models.OrderItemStatusReady},
	}
	for _, c := range cases {
		if models.CanSetItemStatus(c.from, c.to) {
			t.Fatalf("expected %s -> %s to be rejected", c.from, c.to)
		}
	}
}

func TestCanSetItemStatus_CancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []models.OrderItemStatus{
		models.OrderItemStatusNew,
		models.OrderItemStatusSent,
		models.OrderItemStatusInProgress,
		models.OrderItemStatusReady,
	} {
		if !models.CanSetItemStatus(from, models.OrderItemStatusCancelled) {
			t.Fatalf("expected %s -> cancelled to be allowed", from)
		}
	}
}

func TestCanSetItemStatus_TerminalStatesAreFinal(t *testing.T) {
	all := []models.OrderItemStatus{
		models.OrderItemStatusNew,
		models.OrderItemStatusSent,
		models.OrderItemStatusInProgress,
		models.OrderItemStatusReady,
		models.OrderItemStatusServed,
		models.OrderItemStatusCancelled,
	}
	for _, from := range []models.OrderItemStatus{models.OrderItemStatusServed, models.OrderItemStatusCancelled} {
		for _, to := range all {
			if models.CanSetItemStatus(from, to) {
				t.Fatalf("expected terminal %s to reject transition to %s", from, to)
			}
		}
	}
}

func TestOrderStatus_IsFinal(t *testing.T) {
	if models.OrderStatusOpen.IsFinal() || models.OrderStatusInProgress.IsFinal() || models.OrderStatusReady.IsFinal() {
		t.Fatalf("active statuses must not be final")
	}
	if !models.OrderStatusClosed.IsFinal() || !models.OrderStatusCancelled.IsFinal() {
		t.Fatalf("closed and cancelled must be final")
	}
}
