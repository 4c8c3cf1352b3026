package enums

import "fmt"

// MovementType maps to the movement_type enum in Postgres.
type MovementType string

const (
	MovementTypeSale       MovementType = "sale"
	MovementTypePurchase   MovementType = "purchase"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeReturn     MovementType = "return"
	MovementTypeTransfer   MovementType = "transfer"
)

var validMovementTypes = []MovementType{
	MovementTypeSale,
	MovementTypePurchase,
	MovementTypeAdjustment,
	MovementTypeReturn,
	MovementTypeTransfer,
}

// String implements fmt.Stringer.
func (t MovementType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known MovementType.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Decrements reports whether the type normally removes stock. The ledger
// accepts any signed delta per type; this only drives validation messages.
func (t MovementType) Decrements() bool {
	return t == MovementTypeSale
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
