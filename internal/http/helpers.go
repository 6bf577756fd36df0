package http

import (
	"strings"

	"expensetracker/internal/core"
)

// formatMoney renders an amount as "€12.34".
func formatMoney(m core.Money) string {
	return "€" + m.String()
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
