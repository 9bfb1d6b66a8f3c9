// Package money provides exact fixed-point monetary arithmetic. Amounts
// are held at arbitrary precision during computation and rounded half-up
// to the currency scale only at output boundaries, matching the rounding
// used for amortization schedules.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of fractional digits for currency amounts
	Scale = 2
	// RateScale is the number of fractional digits for interest rates
	RateScale = 4
)

// Money is an exact decimal amount. The zero value is a valid zero amount.
// Comparisons are exact; there is no epsilon. Negative values are legal as
// intermediate results and must be checked against the non-negativity
// invariant before commit.
type Money struct {
	dec decimal.Decimal
}

// New wraps a decimal as a Money amount
func New(d decimal.Decimal) Money {
	return Money{dec: d}
}

// Zero returns the zero amount
func Zero() Money {
	return Money{}
}

// FromInt returns the amount of i whole currency units
func FromInt(i int64) Money {
	return Money{dec: decimal.NewFromInt(i)}
}

// FromString parses a decimal amount string
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid money amount %q: %w", s, err)
	}
	return Money{dec: d}, nil
}

// MustFromString parses a decimal amount string, panicking on failure.
// For literals in tests and configuration defaults only.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money { return Money{dec: m.dec.Add(other.dec)} }
func (m Money) Sub(other Money) Money { return Money{dec: m.dec.Sub(other.dec)} }
func (m Money) Neg() Money            { return Money{dec: m.dec.Neg()} }

// Mul multiplies the amount by a scalar rate
func (m Money) Mul(d decimal.Decimal) Money { return Money{dec: m.dec.Mul(d)} }

// Div divides the amount by a scalar divisor
func (m Money) Div(d decimal.Decimal) Money { return Money{dec: m.dec.Div(d)} }

// Round rounds half-up to the currency scale
func (m Money) Round() Money {
	return Money{dec: m.dec.Round(Scale)}
}

// RoundRate rounds half-up to the rate scale
func (m Money) RoundRate() Money {
	return Money{dec: m.dec.Round(RateScale)}
}

func (m Money) Cmp(other Money) int              { return m.dec.Cmp(other.dec) }
func (m Money) Equal(other Money) bool           { return m.dec.Equal(other.dec) }
func (m Money) LessThan(other Money) bool        { return m.dec.LessThan(other.dec) }
func (m Money) GreaterThan(other Money) bool     { return m.dec.GreaterThan(other.dec) }
func (m Money) GreaterOrEqual(other Money) bool  { return m.dec.GreaterThanOrEqual(other.dec) }
func (m Money) IsPositive() bool                 { return m.dec.IsPositive() }
func (m Money) IsNegative() bool                 { return m.dec.IsNegative() }
func (m Money) IsZero() bool                     { return m.dec.IsZero() }

// Decimal exposes the underlying decimal value
func (m Money) Decimal() decimal.Decimal { return m.dec }

// String renders the amount fixed to the currency scale
func (m Money) String() string {
	return m.dec.StringFixed(Scale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return m.dec.MarshalJSON()
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.dec.UnmarshalJSON(data)
}

// Value implements driver.Valuer so amounts bind to NUMERIC columns
func (m Money) Value() (driver.Value, error) {
	return m.dec.Value()
}

// Scan implements sql.Scanner for NUMERIC column reads
func (m *Money) Scan(value interface{}) error {
	return m.dec.Scan(value)
}
