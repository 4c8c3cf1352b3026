package checkout

import (
	"testing"

	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/google/uuid"
)

func TestCartAddLineMerges(t *testing.T) {
	cart := NewCart()
	productID := uuid.New()

	if _, err := cart.AddLine(productID, 2); err != nil {
		t.Fatalf("add line: %v", err)
	}
	line, err := cart.AddLine(productID, 3)
	if err != nil {
		t.Fatalf("add line again: %v", err)
	}
	if line.Qty != 5 {
		t.Fatalf("expected merged qty 5, got %d", line.Qty)
	}
	if len(cart.Lines()) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Lines()))
	}
}

func TestCartAddLineRejectsNonPositiveQty(t *testing.T) {
	cart := NewCart()
	if _, err := cart.AddLine(uuid.New(), 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := cart.AddLine(uuid.New(), -1); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCartUpdateQuantityRemovesAtZero(t *testing.T) {
	cart := NewCart()
	line, err := cart.AddLine(uuid.New(), 2)
	if err != nil {
		t.Fatalf("add line: %v", err)
	}

	if err := cart.UpdateQuantity(line.ID, 0); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if !cart.IsEmpty() {
		t.Fatal("expected empty cart after zero-quantity update")
	}
}

func TestCartUpdateQuantitySets(t *testing.T) {
	cart := NewCart()
	line, err := cart.AddLine(uuid.New(), 2)
	if err != nil {
		t.Fatalf("add line: %v", err)
	}
	if err := cart.UpdateQuantity(line.ID, 7); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if cart.Lines()[0].Qty != 7 {
		t.Fatalf("expected qty 7, got %d", cart.Lines()[0].Qty)
	}
}

func TestCartRemoveLineUnknown(t *testing.T) {
	cart := NewCart()
	if err := cart.RemoveLine(uuid.New()); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
