package enums

import "fmt"

// AdjustmentDirection says which way a manual correction moves stock.
type AdjustmentDirection string

const (
	AdjustmentDirectionIncrease AdjustmentDirection = "increase"
	AdjustmentDirectionDecrease AdjustmentDirection = "decrease"
)

// IsValid reports whether the value is a known AdjustmentDirection.
func (d AdjustmentDirection) IsValid() bool {
	return d == AdjustmentDirectionIncrease || d == AdjustmentDirectionDecrease
}

// ParseAdjustmentDirection converts raw input into an AdjustmentDirection.
func ParseAdjustmentDirection(value string) (AdjustmentDirection, error) {
	switch AdjustmentDirection(value) {
	case AdjustmentDirectionIncrease:
		return AdjustmentDirectionIncrease, nil
	case AdjustmentDirectionDecrease:
		return AdjustmentDirectionDecrease, nil
	}
	return "", fmt.Errorf("invalid adjustment direction %q", value)
}

// AdjustmentReason is the mandatory justification on a manual correction.
type AdjustmentReason string

const (
	AdjustmentReasonDamage     AdjustmentReason = "damage"
	AdjustmentReasonLoss       AdjustmentReason = "loss"
	AdjustmentReasonFound      AdjustmentReason = "found"
	AdjustmentReasonReturn     AdjustmentReason = "return"
	AdjustmentReasonTransfer   AdjustmentReason = "transfer"
	AdjustmentReasonStocktake  AdjustmentReason = "stocktake"
	AdjustmentReasonExpiration AdjustmentReason = "expiration"
)

var validAdjustmentReasons = []AdjustmentReason{
	AdjustmentReasonDamage,
	AdjustmentReasonLoss,
	AdjustmentReasonFound,
	AdjustmentReasonReturn,
	AdjustmentReasonTransfer,
	AdjustmentReasonStocktake,
	AdjustmentReasonExpiration,
}

// IsValid reports whether the value is a known AdjustmentReason.
func (r AdjustmentReason) IsValid() bool {
	for _, candidate := range validAdjustmentReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// MovementType maps the reason onto the ledger movement type it produces.
func (r AdjustmentReason) MovementType() MovementType {
	switch r {
	case AdjustmentReasonReturn:
		return MovementTypeReturn
	case AdjustmentReasonTransfer:
		return MovementTypeTransfer
	}
	return MovementTypeAdjustment
}

// ParseAdjustmentReason converts raw input into an AdjustmentReason.
func ParseAdjustmentReason(value string) (AdjustmentReason, error) {
	for _, candidate := range validAdjustmentReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjustment reason %q", value)
}
