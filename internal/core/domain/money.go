package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a caller-supplied price. Amounts are rounded to cents
// and must be strictly positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
