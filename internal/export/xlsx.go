// Package export renders reports as spreadsheet downloads.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"expensetracker/internal/reports"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetMonthly    = "Monthly"
	SheetCategories = "Categories"
	SheetTrend      = "Trend"
)

// Filename is the attachment name for a report generated on r's date.
func Filename(r reports.Report) string {
	return fmt.Sprintf("expense-report-%s.xlsx", r.GeneratedAt.Format("2006-01-02"))
}

// WriteReport writes r as a workbook with one sheet per view.
func WriteReport(w io.Writer, r reports.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMonthly); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetCategories, SheetTrend} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4F46E5"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}

	monthly := [][]any{{"Month", "Total"}}
	for _, m := range r.Bars.Months {
		monthly = append(monthly, []any{fmt.Sprintf("%s %d", m.Label, m.Year), m.Total.InexactFloat64()})
	}
	monthly = append(monthly, []any{"Total", r.Bars.TotalExpense.InexactFloat64()})

	categories := [][]any{{"Category", "Total", "Percentage"}}
	for _, c := range r.Categories {
		categories = append(categories, []any{c.Category, c.Total.InexactFloat64(), c.Percentage})
	}

	trend := [][]any{{"Month", "Total"}}
	for _, p := range r.Trend {
		trend = append(trend, []any{fmt.Sprintf("%s %d", p.Label, p.Year), p.Total})
	}

	for _, s := range []struct {
		name string
		rows [][]any
		cols string
	}{
		{SheetMonthly, monthly, "B"},
		{SheetCategories, categories, "B"},
		{SheetTrend, trend, ""},
	} {
		if err := writeRows(f, s.name, s.rows); err != nil {
			return err
		}
		last, _ := excelize.CoordinatesToCellName(len(s.rows[0]), 1)
		if err := f.SetCellStyle(s.name, "A1", last, header); err != nil {
			return fmt.Errorf("style %s: %w", s.name, err)
		}
		if s.cols != "" && len(s.rows) > 1 {
			if err := f.SetCellStyle(s.name, s.cols+"2", fmt.Sprintf("%s%d", s.cols, len(s.rows)), money); err != nil {
				return fmt.Errorf("style %s: %w", s.name, err)
			}
		}
		if err := f.SetColWidth(s.name, "A", "A", 16); err != nil {
			return fmt.Errorf("width %s: %w", s.name, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
