package http

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/reports"
	"expensetracker/internal/services"
)

// Views are the payloads shared by templates and JSON responses. Fields
// tagged json:"-" are display-only.
type (
	expenseView struct {
		ID            int64  `json:"id"`
		User          string `json:"user"`
		CategoryID    int64  `json:"category_id"`
		Category      string `json:"category"`
		Amount        string `json:"amount"`
		Description   string `json:"description"`
		Date          string `json:"date"`
		AmountDisplay string `json:"-"`
		DateDisplay   string `json:"-"`
	}

	categoryView struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	userView struct {
		ID         int64  `json:"id"`
		Username   string `json:"username"`
		DateJoined string `json:"date_joined"`
	}

	expensesView struct {
		Expenses []expenseView `json:"expenses"`
	}

	categoriesView struct {
		Categories []categoryView `json:"categories"`
	}

	dashboardView struct {
		Expenses          []expenseView  `json:"expenses"`
		Categories        []categoryView `json:"categories"`
		MonthTotal        string         `json:"month_total"`
		MonthCount        int            `json:"month_count"`
		MonthTotalDisplay string         `json:"-"`
	}

	monthView struct {
		MonthName string      `json:"month_name"`
		Total     json.Number `json:"total"`
		Height    string      `json:"height"`
		HeightPx  int         `json:"-"`
	}

	categoryShareView struct {
		Category   string      `json:"category"`
		Total      json.Number `json:"total"`
		Percentage float64     `json:"percentage"`
		Width      int         `json:"-"`
	}

	trendBarView struct {
		Label  string
		Total  int64
		Height int
	}

	reportView struct {
		MonthsData   []monthView         `json:"months_data"`
		TotalExpense json.Number         `json:"total_expense"`
		CategoryData []categoryShareView `json:"category_data"`
		TrendLabels  []string            `json:"trend_labels"`
		TrendTotals  []int64             `json:"trend_totals"`
		Trend        []trendBarView      `json:"-"`
	}

	// errorsView is the JSON body of a rejected form.
	errorsView map[string][]string
)

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:            e.ID,
		User:          e.Username,
		CategoryID:    e.CategoryID,
		Category:      e.CategoryName,
		Amount:        e.Amount.String(),
		Description:   e.Description,
		Date:          e.Date.String(),
		AmountDisplay: formatMoney(e.Amount),
		DateDisplay:   e.Date.Display(),
	}
}

func newExpenseViews(expenses []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, newExpenseView(e))
	}
	return out
}

func newCategoryViews(categories []core.Category) []categoryView {
	out := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryView{ID: c.ID, Name: c.Name})
	}
	return out
}

func newUserView(u core.User) userView {
	return userView{ID: u.ID, Username: u.Username, DateJoined: u.CreatedAt.UTC().Format(time.RFC3339)}
}

func newDashboardView(d services.Dashboard) dashboardView {
	return dashboardView{
		Expenses:          newExpenseViews(d.Expenses),
		Categories:        newCategoryViews(d.Categories),
		MonthTotal:        d.MonthTotal.String(),
		MonthCount:        d.MonthCount,
		MonthTotalDisplay: formatMoney(d.MonthTotal),
	}
}

func newReportView(r reports.Report) reportView {
	v := reportView{
		MonthsData:   make([]monthView, 0, len(r.Bars.Months)),
		TotalExpense: json.Number(r.Bars.TotalExpense.StringFixed(2)),
		CategoryData: make([]categoryShareView, 0, len(r.Categories)),
		TrendLabels:  make([]string, 0, len(r.Trend)),
		TrendTotals:  make([]int64, 0, len(r.Trend)),
	}
	for _, m := range r.Bars.Months {
		v.MonthsData = append(v.MonthsData, monthView{
			MonthName: m.Label,
			Total:     json.Number(m.Total.StringFixed(2)),
			Height:    fmt.Sprintf("%dpx", m.Height),
			HeightPx:  m.Height,
		})
	}
	for _, c := range r.Categories {
		v.CategoryData = append(v.CategoryData, categoryShareView{
			Category:   c.Category,
			Total:      json.Number(c.Total.StringFixed(2)),
			Percentage: c.Percentage,
			Width:      int(math.Round(c.Percentage)),
		})
	}
	var peak int64
	for _, p := range r.Trend {
		v.TrendLabels = append(v.TrendLabels, p.Label)
		v.TrendTotals = append(v.TrendTotals, p.Total)
		peak = max(peak, p.Total)
	}
	for _, p := range r.Trend {
		bar := trendBarView{Label: p.Label, Total: p.Total}
		if peak > 0 {
			bar.Height = int(p.Total * reports.BarMaxHeight / peak)
		}
		v.Trend = append(v.Trend, bar)
	}
	return v
}
