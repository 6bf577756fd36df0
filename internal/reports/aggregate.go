// Package reports computes the aggregated spending views shown on the
// reports page. The aggregation functions are pure: they take the caller's
// expenses and a reference time and never touch storage.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

const (
	// BarMaxHeight is the pixel height of the tallest monthly bar.
	BarMaxHeight = 128

	BarMonths   = 3
	TrendMonths = 12
)

type (
	// MonthKey identifies a calendar month.
	MonthKey struct {
		Year  int
		Month time.Month
	}

	MonthBar struct {
		MonthKey
		Label  string
		Total  decimal.Decimal
		Height int
	}

	MonthlyBars struct {
		Months       []MonthBar
		TotalExpense decimal.Decimal
	}

	CategoryShare struct {
		Category   string
		Total      decimal.Decimal
		Percentage float64
	}

	TrendPoint struct {
		MonthKey
		Label string
		Total int64
	}
)

// MonthOf returns the calendar month a date falls in.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// AddMonths shifts k by n calendar months.
func (k MonthKey) AddMonths(n int) MonthKey {
	t := time.Date(k.Year, k.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// First is the first day of the month.
func (k MonthKey) First() core.Date {
	return core.NewDate(k.Year, k.Month, 1)
}

// Last is the last day of the month.
func (k MonthKey) Last() core.Date {
	return core.Date{Time: k.AddMonths(1).First().AddDate(0, 0, -1)}
}

// Label is the abbreviated month name, e.g. "Jan".
func (k MonthKey) Label() string {
	return k.Month.String()[:3]
}

// lastMonths returns the n months ending at now's month, oldest first.
func lastMonths(now time.Time, n int) []MonthKey {
	current := MonthOf(now)
	out := make([]MonthKey, n)
	for i := 0; i < n; i++ {
		out[i] = current.AddMonths(i - (n - 1))
	}
	return out
}

func totalsByMonth(expenses []core.Expense) map[MonthKey]decimal.Decimal {
	totals := make(map[MonthKey]decimal.Decimal)
	for _, e := range expenses {
		k := MonthOf(e.Date.Time)
		totals[k] = totals[k].Add(e.Amount.Decimal())
	}
	return totals
}

// BuildMonthlyBars sums the last three calendar months and scales each
// total against the largest one. Heights round half to even, like the trend.
func BuildMonthlyBars(expenses []core.Expense, now time.Time) MonthlyBars {
	totals := totalsByMonth(expenses)
	months := lastMonths(now, BarMonths)

	bars := MonthlyBars{Months: make([]MonthBar, 0, len(months)), TotalExpense: decimal.Zero}
	peak := decimal.Zero
	for _, k := range months {
		t := totals[k]
		if t.GreaterThan(peak) {
			peak = t
		}
		bars.TotalExpense = bars.TotalExpense.Add(t)
		bars.Months = append(bars.Months, MonthBar{MonthKey: k, Label: k.Label(), Total: t})
	}

	if peak.IsPositive() {
		scale := decimal.NewFromInt(BarMaxHeight)
		for i := range bars.Months {
			bars.Months[i].Height = int(bars.Months[i].Total.Mul(scale).Div(peak).RoundBank(0).IntPart())
		}
	}
	return bars
}

// BuildCategoryBreakdown groups the current month's expenses by category,
// largest total first.
func BuildCategoryBreakdown(expenses []core.Expense, now time.Time) []CategoryShare {
	month := MonthOf(now)
	first, last := month.First(), month.Last()

	byName := make(map[string]decimal.Decimal)
	sum := decimal.Zero
	for _, e := range expenses {
		if e.Date.Before(first.Time) || e.Date.After(last.Time) {
			continue
		}
		amt := e.Amount.Decimal()
		byName[e.CategoryName] = byName[e.CategoryName].Add(amt)
		sum = sum.Add(amt)
	}

	shares := make([]CategoryShare, 0, len(byName))
	for name, total := range byName {
		var pct float64
		if sum.IsPositive() {
			pct = total.Div(sum).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		shares = append(shares, CategoryShare{Category: name, Total: total, Percentage: pct})
	}
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].Total.Cmp(shares[j].Total); c != 0 {
			return c > 0
		}
		return shares[i].Category < shares[j].Category
	})
	return shares
}

// BuildTrend returns twelve monthly totals ending at now's month, rounded
// half to even to whole currency units.
func BuildTrend(expenses []core.Expense, now time.Time) []TrendPoint {
	totals := totalsByMonth(expenses)
	months := lastMonths(now, TrendMonths)

	points := make([]TrendPoint, 0, len(months))
	for _, k := range months {
		points = append(points, TrendPoint{
			MonthKey: k,
			Label:    k.Label(),
			Total:    totals[k].RoundBank(0).IntPart(),
		})
	}
	return points
}

// Window is the date range that covers every view: the first day of the
// oldest trend month through the last day of the current month.
func Window(now time.Time) (from, to core.Date) {
	months := lastMonths(now, TrendMonths)
	return months[0].First(), months[len(months)-1].Last()
}
