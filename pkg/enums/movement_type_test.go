package enums

import "testing"

func TestMovementTypeValidity(t *testing.T) {
	for _, mt := range validMovementTypes {
		if !mt.IsValid() {
			t.Fatalf("%s should be valid", mt)
		}
	}
	if MovementType("restock").IsValid() {
		t.Fatal("unknown type should be invalid")
	}
}

func TestParseMovementType(t *testing.T) {
	mt, err := ParseMovementType("purchase")
	if err != nil || mt != MovementTypePurchase {
		t.Fatalf("parse purchase: %v %v", mt, err)
	}
	if _, err := ParseMovementType("PURCHASE"); err == nil {
		t.Fatal("parsing is case-sensitive")
	}
}

func TestAdjustmentReasonMovementType(t *testing.T) {
	if AdjustmentReasonReturn.MovementType() != MovementTypeReturn {
		t.Fatal("return reason maps to return movement")
	}
	if AdjustmentReasonTransfer.MovementType() != MovementTypeTransfer {
		t.Fatal("transfer reason maps to transfer movement")
	}
	if AdjustmentReasonDamage.MovementType() != MovementTypeAdjustment {
		t.Fatal("damage reason maps to adjustment movement")
	}
}
