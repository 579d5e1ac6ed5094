package shared

import "github.com/shopspring/decimal"

// Cents is a monetary amount in integer minor currency units. All compensation
// arithmetic stays in integers; conversion to decimal happens only at the
// formatting edge.
type Cents int64

// Decimal returns the exact major-unit value (1234 -> 12.34).
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String renders the amount with exactly two decimal places.
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}
