package google

import (
	"fmt"
	"strconv"
	"strings"

	ports "expensetracker/internal/sheets"
)

// findRow returns the 1-based row whose first cell holds id.
func findRow(values [][]any, id int64) (int, bool) {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if cellString(row[0]) == want {
			return i + 1, true
		}
	}
	return 0, false
}

// cellString normalizes a cell value; numeric ids may come back as floats.
func cellString(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func headerRow() []any {
	out := make([]any, len(ports.Header))
	for i, h := range ports.Header {
		out[i] = h
	}
	return out
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:F%d", sheet, row, row)
}

// quoteSheet quotes sheet names that A1 notation cannot take bare.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " !'-") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
