package checkout

import "github.com/shopspring/decimal"

// PricedLine is a cart line joined with its catalog price.
type PricedLine struct {
	UnitPriceCents int
	Qty            int
}

// Totals is the deterministic money breakdown of a checkout. The identity
// SubtotalCents + TaxCents == TotalCents always holds.
type Totals struct {
	SubtotalCents int
	TaxCents      int
	TotalCents    int
}

// ComputeTotals derives the invoice amounts. The subtotal is exact integer
// cents; percentage tax and fixed amounts are added in decimal space and
// the result is rounded half-up to cents exactly once, at the total. The
// tax amount is then the difference, so the identity survives rounding.
func ComputeTotals(lines []PricedLine, rate decimal.Decimal, fixedCents int) Totals {
	subtotal := 0
	for _, line := range lines {
		subtotal += line.UnitPriceCents * line.Qty
	}

	subtotalDec := decimal.NewFromInt(int64(subtotal))
	raw := subtotalDec.
		Add(subtotalDec.Mul(rate)).
		Add(decimal.NewFromInt(int64(fixedCents)))

	total := int(raw.Round(0).IntPart())
	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      total - subtotal,
		TotalCents:    total,
	}
}
