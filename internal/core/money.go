// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents and converted through shopspring/decimal
// whenever arithmetic or formatting needs exact decimal semantics.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a non-negative currency amount with two fractional digits.
type Money struct {
	Cents int64
}

// maxWholeDigits bounds amounts to 10 digits with 2 of them fractional.
const maxWholeDigits = 8

var maxAmount = decimal.New(1, maxWholeDigits)

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is a
// valid amount; negative values, more than two fractional digits and values
// with more than ten digits are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> Money{1234}, nil
//	ParseAmount("12,5")   -> Money{1250}, nil
//	ParseAmount("12.345") -> error
//	ParseAmount("-1")     -> error
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal validates d and converts it to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	if d.Exponent() < -2 {
		return Money{}, ErrTooManyDecimals
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return Money{}, ErrAmountTooLarge
	}
	return Money{Cents: d.Shift(2).IntPart()}, nil
}

// NewMoney builds Money from whole units and cents, e.g. NewMoney(12, 50).
func NewMoney(units, cents int64) Money {
	return Money{Cents: units*100 + cents}
}

// Decimal returns the amount as an exact decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	if m.Cents >= maxAmount.Shift(2).IntPart() {
		return ErrAmountTooLarge
	}
	return nil
}
