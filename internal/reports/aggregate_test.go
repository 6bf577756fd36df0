package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

var june15 = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func expense(category string, amount string, y int, m time.Month, d int) core.Expense {
	money, err := core.ParseAmount(amount)
	if err != nil {
		panic(err)
	}
	return core.Expense{
		UserID:       1,
		CategoryName: category,
		Amount:       money,
		Date:         core.NewDate(y, m, d),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBuildMonthlyBars_CurrentMonthOnly(t *testing.T) {
	expenses := []core.Expense{
		expense("Food", "100", 2025, time.June, 1),
		expense("Food", "50", 2025, time.June, 14),
	}

	bars := BuildMonthlyBars(expenses, june15)

	require.Len(t, bars.Months, 3)
	assert.Equal(t, []string{"Apr", "May", "Jun"}, []string{bars.Months[0].Label, bars.Months[1].Label, bars.Months[2].Label})
	assert.Equal(t, 0, bars.Months[0].Height)
	assert.Equal(t, 0, bars.Months[1].Height)
	assert.Equal(t, 128, bars.Months[2].Height)
	assert.True(t, bars.Months[0].Total.IsZero())
	assert.True(t, bars.TotalExpense.Equal(dec("150")), "total_expense = %s", bars.TotalExpense)
}

func TestBuildMonthlyBars_NoExpenses(t *testing.T) {
	bars := BuildMonthlyBars(nil, june15)

	require.Len(t, bars.Months, 3)
	for _, m := range bars.Months {
		assert.True(t, m.Total.IsZero())
		assert.Equal(t, 0, m.Height)
	}
	assert.True(t, bars.TotalExpense.IsZero())
}

func TestBuildMonthlyBars_ScalesAndRounds(t *testing.T) {
	expenses := []core.Expense{
		expense("Food", "33", 2025, time.April, 3),
		expense("Food", "50", 2025, time.May, 3),
		expense("Food", "100", 2025, time.June, 3),
		// outside the three-month window
		expense("Food", "999", 2025, time.March, 31),
	}

	bars := BuildMonthlyBars(expenses, june15)

	assert.Equal(t, 42, bars.Months[0].Height) // 42.24
	assert.Equal(t, 64, bars.Months[1].Height)
	assert.Equal(t, 128, bars.Months[2].Height)
	assert.True(t, bars.TotalExpense.Equal(dec("183")))
}

func TestBuildMonthlyBars_HalfHeightsRoundToEven(t *testing.T) {
	expenses := []core.Expense{
		expense("Food", "5", 2025, time.April, 3),  // 2.5
		expense("Food", "3", 2025, time.May, 3),    // 1.5
		expense("Food", "256", 2025, time.June, 3), // peak
	}

	bars := BuildMonthlyBars(expenses, june15)

	assert.Equal(t, 2, bars.Months[0].Height)
	assert.Equal(t, 2, bars.Months[1].Height)
	assert.Equal(t, 128, bars.Months[2].Height)
}

func TestBuildMonthlyBars_YearBoundary(t *testing.T) {
	now := time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		expense("Travel", "20", 2024, time.November, 30),
		expense("Travel", "10", 2024, time.December, 1),
	}

	bars := BuildMonthlyBars(expenses, now)

	assert.Equal(t, MonthKey{2024, time.November}, bars.Months[0].MonthKey)
	assert.Equal(t, MonthKey{2024, time.December}, bars.Months[1].MonthKey)
	assert.Equal(t, MonthKey{2025, time.January}, bars.Months[2].MonthKey)
	assert.Equal(t, 128, bars.Months[0].Height)
	assert.Equal(t, 64, bars.Months[1].Height)
	assert.Equal(t, 0, bars.Months[2].Height)
}

func TestBuildCategoryBreakdown(t *testing.T) {
	expenses := []core.Expense{
		expense("Travel", "40", 2025, time.June, 2),
		expense("Food", "25", 2025, time.June, 1),
		expense("Food", "35", 2025, time.June, 30),
		// previous month is excluded
		expense("Health", "500", 2025, time.May, 31),
	}

	shares := BuildCategoryBreakdown(expenses, june15)

	require.Len(t, shares, 2)
	assert.Equal(t, "Food", shares[0].Category)
	assert.True(t, shares[0].Total.Equal(dec("60")))
	assert.InDelta(t, 60.0, shares[0].Percentage, 1e-9)
	assert.Equal(t, "Travel", shares[1].Category)
	assert.InDelta(t, 40.0, shares[1].Percentage, 1e-9)
}

func TestBuildCategoryBreakdown_PercentagesSumTo100(t *testing.T) {
	expenses := []core.Expense{
		expense("Food", "10", 2025, time.June, 1),
		expense("Travel", "10", 2025, time.June, 1),
		expense("Health", "10", 2025, time.June, 1),
	}

	shares := BuildCategoryBreakdown(expenses, june15)

	var sum float64
	for _, s := range shares {
		sum += s.Percentage
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
	// equal totals are ordered by name
	assert.Equal(t, []string{"Food", "Health", "Travel"}, []string{shares[0].Category, shares[1].Category, shares[2].Category})
}

func TestBuildCategoryBreakdown_ZeroTotal(t *testing.T) {
	expenses := []core.Expense{
		expense("Food", "0", 2025, time.June, 1),
		expense("Travel", "0.00", 2025, time.June, 2),
	}

	shares := BuildCategoryBreakdown(expenses, june15)

	require.Len(t, shares, 2)
	for _, s := range shares {
		assert.Equal(t, 0.0, s.Percentage)
	}
	assert.Empty(t, BuildCategoryBreakdown(nil, june15))
}

func TestBuildTrend(t *testing.T) {
	expenses := []core.Expense{
		expense("Food", "10.50", 2024, time.July, 1),
		expense("Food", "11.50", 2025, time.January, 1),
		expense("Food", "0.49", 2025, time.June, 1),
		expense("Food", "7.25", 2025, time.June, 2),
		// before the window
		expense("Food", "100", 2024, time.June, 30),
	}

	trend := BuildTrend(expenses, june15)

	require.Len(t, trend, 12)
	assert.Equal(t, "Jul", trend[0].Label)
	assert.Equal(t, MonthKey{2024, time.July}, trend[0].MonthKey)
	assert.Equal(t, "Jun", trend[11].Label)
	assert.Equal(t, MonthKey{2025, time.June}, trend[11].MonthKey)

	assert.Equal(t, int64(10), trend[0].Total) // half to even
	assert.Equal(t, int64(12), trend[6].Total) // January
	assert.Equal(t, int64(8), trend[11].Total) // 7.74
	for i := 1; i < 6; i++ {
		assert.Equal(t, int64(0), trend[i].Total)
	}
}

func TestBuildTrend_AlwaysTwelveOldestFirst(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC),
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	} {
		trend := BuildTrend(nil, now)
		require.Len(t, trend, 12)
		for i := 1; i < len(trend); i++ {
			assert.Equal(t, trend[i-1].MonthKey.AddMonths(1), trend[i].MonthKey)
		}
		assert.Equal(t, MonthOf(now), trend[11].MonthKey)
	}
}

func TestWindow(t *testing.T) {
	from, to := Window(june15)
	assert.Equal(t, core.NewDate(2024, time.July, 1), from)
	assert.Equal(t, core.NewDate(2025, time.June, 30), to)

	_, to = Window(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, core.NewDate(2024, time.February, 29), to)
}
