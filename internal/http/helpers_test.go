package http

import (
	"testing"

	"expensetracker/internal/core"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   core.Money
		want string
	}{
		{core.NewMoney(0, 0), "€0.00"},
		{core.NewMoney(12, 5), "€12.05"},
		{core.NewMoney(1234, 50), "€1234.50"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  lunch  ":       "lunch",
		"a\x00b\x07c":     "abc",
		"line\nbreak\tok": "line\nbreak\tok",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}
