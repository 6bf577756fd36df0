// Package sheets defines the outbound port used to mirror expenses into a
// spreadsheet.
package sheets

import (
	"context"
	"errors"
	"strings"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter appends one expense row. Appending an expense whose id is
	// already present returns the existing row reference.
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}
)

// Header is the first row written to an empty expenses sheet.
var Header = []string{"ID", "Date", "User", "Category", "Description", "Amount"}

// CheckRow validates the fields a sheet row needs.
func CheckRow(e core.Expense) error {
	var errs []error
	if e.ID <= 0 {
		errs = append(errs, errors.New("expense id is required"))
	}
	if err := e.Date.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := e.Amount.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(e.CategoryName) == "" {
		errs = append(errs, errors.New("category is required"))
	}
	return errors.Join(errs...)
}

// Row renders e in Header column order.
func Row(e core.Expense) []any {
	return []any{e.ID, e.Date.String(), e.Username, e.CategoryName, e.Description, e.Amount.String()}
}
