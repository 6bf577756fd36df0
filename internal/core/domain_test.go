package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("round trip = %s", d)
	}
	if d.Display() != "29 February 2024" {
		t.Fatalf("display = %s", d.Display())
	}
	if _, err := ParseDate("29/02/2024"); !errors.Is(err, ErrInvalidDateValue) {
		t.Fatalf("expected ErrInvalidDateValue, got %v", err)
	}
}

func TestDateOfKeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	late := time.Date(2025, 3, 31, 23, 30, 0, 0, loc)
	if got := DateOf(late); got.Month() != time.March || got.Day() != 31 {
		t.Fatalf("DateOf = %s, want 2025-03-31", got)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		UserID:     1,
		CategoryID: 2,
		Date:       NewDate(2025, 1, 1),
		Amount:     Money{Cents: 0},
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		e     Expense
		field string
	}{
		{Expense{UserID: 1, CategoryID: 2, Date: NewDate(2025, 1, 1), Amount: Money{Cents: -1}}, "amount"},
		{Expense{UserID: 1, CategoryID: 0, Date: NewDate(2025, 1, 1)}, "category"},
		{Expense{UserID: 0, CategoryID: 2, Date: NewDate(2025, 1, 1)}, "user"},
		{Expense{UserID: 1, CategoryID: 2}, "date"},
		{Expense{UserID: 1, CategoryID: 2, Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 256)}, "description"},
	}
	for i, tc := range bads {
		err := tc.e.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
		if verr.First(tc.field) == "" {
			t.Fatalf("case %d expected error on %q, got %v", i, tc.field, verr.Fields)
		}
	}
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	if verr.Err() != nil {
		t.Fatal("empty ValidationError should not be an error")
	}
	verr.Add("name", "required")
	verr.Add("amount", "invalid")
	verr.Add("amount", "negative")

	if !verr.HasErrors() {
		t.Fatal("expected errors")
	}
	want := "validation failed: amount: invalid; negative, name: required"
	if verr.Error() != want {
		t.Fatalf("Error() = %q, want %q", verr.Error(), want)
	}
}

func TestNormalizeCategoryName(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"  Food ", "Food", true},
		{"", "", false},
		{"   ", "", false},
		{strings.Repeat("a", 100), strings.Repeat("a", 100), true},
		{strings.Repeat("a", 101), "", false},
	}
	for _, tc := range cases {
		got, err := NormalizeCategoryName(tc.in)
		if tc.ok != (err == nil) {
			t.Fatalf("%q: ok=%v err=%v", tc.in, tc.ok, err)
		}
		if got != tc.want {
			t.Fatalf("%q: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	for _, ok := range []string{"admin", "jane.doe", "a+b@c-d_e"} {
		if err := ValidateUsername(ok); err != nil {
			t.Errorf("%q should be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "with space", "semi;colon", strings.Repeat("u", 151)} {
		if err := ValidateUsername(bad); err == nil {
			t.Errorf("%q should be invalid", bad)
		}
	}
}

func TestCaller(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	anon := Caller{Now: now}
	if anon.Authenticated() {
		t.Fatal("zero user should be anonymous")
	}
	c := NewCaller(User{ID: 7, Username: "jane"}, now, "req_1")
	if !c.Authenticated() {
		t.Fatal("expected authenticated caller")
	}
	if c.Today() != NewDate(2025, 6, 15) {
		t.Fatalf("Today = %s", c.Today())
	}
}
