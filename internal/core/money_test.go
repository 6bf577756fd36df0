package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"99999999.99", 9999999999, true},
		{"100000000", 0, false},
		{"1.005", 0, false},
		{"-1", 0, false},
		{"-0.01", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmountErrorKinds(t *testing.T) {
	if _, err := ParseAmount("-5"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := ParseAmount("5.123"); !errors.Is(err, ErrTooManyDecimals) {
		t.Fatalf("expected ErrTooManyDecimals, got %v", err)
	}
	if _, err := ParseAmount("five"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestMoneyDecimal(t *testing.T) {
	m := NewMoney(12, 5)
	if m.String() != "12.05" {
		t.Fatalf("String() = %s", m.String())
	}
	if !m.Decimal().Equal(decimal.RequireFromString("12.05")) {
		t.Fatalf("Decimal() = %s", m.Decimal())
	}
	if got := m.Add(NewMoney(0, 95)); got.Cents != 1300 {
		t.Fatalf("Add = %d", got.Cents)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("zero should be valid, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatal("expected error for negative")
	}
}
