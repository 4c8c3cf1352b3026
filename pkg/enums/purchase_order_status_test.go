package enums

import "testing"

func TestPurchaseOrderForwardChain(t *testing.T) {
	order := []PurchaseOrderStatus{
		PurchaseOrderStatusCreated,
		PurchaseOrderStatusSent,
		PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusShipped,
		PurchaseOrderStatusReceived,
	}

	for i := 0; i < len(order)-1; i++ {
		if !order[i].CanTransitionTo(order[i+1]) {
			t.Fatalf("%s should advance to %s", order[i], order[i+1])
		}
		next, ok := order[i].NextStatus()
		if !ok || next != order[i+1] {
			t.Fatalf("NextStatus(%s) = %s, want %s", order[i], next, order[i+1])
		}
	}
}

func TestPurchaseOrderSkipRejected(t *testing.T) {
	if PurchaseOrderStatusCreated.CanTransitionTo(PurchaseOrderStatusShipped) {
		t.Fatal("created must not jump to shipped")
	}
	if PurchaseOrderStatusSent.CanTransitionTo(PurchaseOrderStatusReceived) {
		t.Fatal("sent must not jump to received")
	}
	if PurchaseOrderStatusConfirmed.CanTransitionTo(PurchaseOrderStatusCreated) {
		t.Fatal("no backwards transitions")
	}
}

func TestPurchaseOrderCancellation(t *testing.T) {
	for _, s := range []PurchaseOrderStatus{
		PurchaseOrderStatusCreated,
		PurchaseOrderStatusSent,
		PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusShipped,
	} {
		if !s.CanTransitionTo(PurchaseOrderStatusCancelled) {
			t.Fatalf("%s should be cancellable", s)
		}
	}
}

func TestPurchaseOrderTerminalStates(t *testing.T) {
	for _, s := range []PurchaseOrderStatus{PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
		for _, target := range validPurchaseOrderStatuses {
			if s.CanTransitionTo(target) {
				t.Fatalf("%s must not transition to %s", s, target)
			}
		}
		if _, ok := s.NextStatus(); ok {
			t.Fatalf("%s has no successor", s)
		}
	}
}

func TestParsePurchaseOrderStatus(t *testing.T) {
	if _, err := ParsePurchaseOrderStatus("shipped"); err != nil {
		t.Fatalf("shipped should parse: %v", err)
	}
	if _, err := ParsePurchaseOrderStatus("delivered"); err == nil {
		t.Fatal("unknown status should fail")
	}
}
