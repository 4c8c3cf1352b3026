package enums

import "fmt"

// PurchaseOrderStatus tracks a procurement order through its fixed sequence.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusCreated   PurchaseOrderStatus = "created"
	PurchaseOrderStatusSent      PurchaseOrderStatus = "sent"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "confirmed"
	PurchaseOrderStatusShipped   PurchaseOrderStatus = "shipped"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusCreated,
	PurchaseOrderStatusSent,
	PurchaseOrderStatusConfirmed,
	PurchaseOrderStatusShipped,
	PurchaseOrderStatusReceived,
	PurchaseOrderStatusCancelled,
}

// forwardSuccessor is the only legal non-cancellation step from each status.
var forwardSuccessor = map[PurchaseOrderStatus]PurchaseOrderStatus{
	PurchaseOrderStatusCreated:   PurchaseOrderStatusSent,
	PurchaseOrderStatusSent:      PurchaseOrderStatusConfirmed,
	PurchaseOrderStatusConfirmed: PurchaseOrderStatusShipped,
	PurchaseOrderStatusShipped:   PurchaseOrderStatusReceived,
}

// String implements fmt.Stringer.
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (s PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusReceived || s == PurchaseOrderStatusCancelled
}

// NextStatus returns the immediate forward successor, if any.
func (s PurchaseOrderStatus) NextStatus() (PurchaseOrderStatus, bool) {
	next, ok := forwardSuccessor[s]
	return next, ok
}

// CanTransitionTo reports whether target is reachable in a single step:
// the immediate successor, or cancellation from any non-terminal status.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if target == PurchaseOrderStatusCancelled {
		return true
	}
	next, ok := forwardSuccessor[s]
	return ok && next == target
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
