package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money renders a decimal amount with two fractional digits. Arithmetic stays
// on decimal.Decimal; Money only exists at the response boundary.
type Money decimal.Decimal

// NewMoney wraps a decimal for display.
func NewMoney(d decimal.Decimal) Money {
	return Money(d)
}

// Decimal returns the underlying value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.Decimal(m)
}

// String formats the amount rounded half away from zero to cents.
func (m Money) String() string {
	return decimal.Decimal(m).StringFixed(2)
}

// MarshalJSON renders the amount as a quoted string, e.g. "49.91".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", m.String())), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}
