// Package authz gates mutating operations behind a capability-set check.
// The core services are role-agnostic; the API middleware asks Authorized
// before dispatching any mutation.
package authz

import "github.com/adriansoto/stockpilot-backend/pkg/enums"

// Action names a guarded mutation.
type Action string

const (
	ActionCheckout          Action = "checkout"
	ActionRefundInvoice     Action = "refund_invoice"
	ActionAdjustStock       Action = "adjust_stock"
	ActionRecordMovement    Action = "record_movement"
	ActionCreatePurchaseOrd Action = "create_purchase_order"
	ActionAdvancePurchase   Action = "advance_purchase_order"
	ActionCancelPurchase    Action = "cancel_purchase_order"
	ActionReceivePurchase   Action = "receive_purchase_order"
)

var capabilities = map[enums.ActorRole]map[Action]struct{}{
	enums.ActorRoleCashier: actionSet(
		ActionCheckout,
	),
	enums.ActorRolePurchaser: actionSet(
		ActionCreatePurchaseOrd,
		ActionAdvancePurchase,
		ActionCancelPurchase,
		ActionReceivePurchase,
	),
	enums.ActorRoleManager: actionSet(
		ActionCheckout,
		ActionRefundInvoice,
		ActionAdjustStock,
		ActionRecordMovement,
		ActionCreatePurchaseOrd,
		ActionAdvancePurchase,
		ActionCancelPurchase,
		ActionReceivePurchase,
	),
}

func actionSet(actions ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, action := range actions {
		set[action] = struct{}{}
	}
	return set
}

// Authorized reports whether role may perform action. Admin may perform
// everything; unknown roles may perform nothing.
func Authorized(action Action, role enums.ActorRole) bool {
	if !role.IsValid() {
		return false
	}
	if role == enums.ActorRoleAdmin {
		return true
	}
	set, ok := capabilities[role]
	if !ok {
		return false
	}
	_, allowed := set[action]
	return allowed
}
