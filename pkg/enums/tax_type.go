package enums

import "fmt"

// TaxType distinguishes percentage rates from fixed amounts.
type TaxType string

const (
	TaxTypePercentage TaxType = "percentage"
	TaxTypeFixed      TaxType = "fixed"
)

// IsValid reports whether the value is a known TaxType.
func (t TaxType) IsValid() bool {
	return t == TaxTypePercentage || t == TaxTypeFixed
}

// ParseTaxType converts raw input into a TaxType.
func ParseTaxType(value string) (TaxType, error) {
	switch TaxType(value) {
	case TaxTypePercentage:
		return TaxTypePercentage, nil
	case TaxTypeFixed:
		return TaxTypeFixed, nil
	}
	return "", fmt.Errorf("invalid tax type %q", value)
}
