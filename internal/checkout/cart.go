package checkout

import (
	pkgerrors "github.com/adriansoto/stockpilot-backend/pkg/errors"
	"github.com/google/uuid"
)

// Line is one product/quantity pair in an ephemeral cart.
type Line struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Qty       int
}

// Cart is the in-memory assembly stage before checkout. Nothing here
// touches stock; availability is only decided inside the checkout
// transaction.
type Cart struct {
	lines []Line
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddLine merges into an existing line for the same product, or appends.
func (c *Cart) AddLine(productID uuid.UUID, qty int) (*Line, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines[i].Qty += qty
			return &c.lines[i], nil
		}
	}
	line := Line{ID: uuid.New(), ProductID: productID, Qty: qty}
	c.lines = append(c.lines, line)
	return &c.lines[len(c.lines)-1], nil
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
func (c *Cart) UpdateQuantity(lineID uuid.UUID, qty int) error {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			if qty <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
				return nil
			}
			c.lines[i].Qty = qty
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// RemoveLine drops a line from the cart.
func (c *Cart) RemoveLine(lineID uuid.UUID) error {
	for i := range c.lines {
		if c.lines[i].ID == lineID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
}

// Lines returns a copy of the cart contents.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}
