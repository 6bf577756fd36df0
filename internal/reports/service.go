package reports

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

// ExpenseSource loads a single user's expenses for a date range, inclusive.
type ExpenseSource interface {
	ListUserExpensesBetween(ctx context.Context, userID int64, from, to core.Date) ([]core.Expense, error)
}

// Report bundles the three views rendered on the reports page.
type Report struct {
	Bars        MonthlyBars
	Categories  []CategoryShare
	Trend       []TrendPoint
	GeneratedAt time.Time
}

// Compute builds every view from one slice of expenses.
func Compute(expenses []core.Expense, now time.Time) Report {
	return Report{
		Bars:        BuildMonthlyBars(expenses, now),
		Categories:  BuildCategoryBreakdown(expenses, now),
		Trend:       BuildTrend(expenses, now),
		GeneratedAt: now,
	}
}

type Service struct {
	source ExpenseSource
}

func NewService(source ExpenseSource) *Service {
	return &Service{source: source}
}

// Build loads the caller's expenses for the trend window once and derives
// all views from them.
func (s *Service) Build(ctx context.Context, caller core.Caller) (Report, error) {
	if !caller.Authenticated() {
		return Report{}, core.ErrAnonymousCaller
	}
	from, to := Window(caller.Now)
	expenses, err := s.source.ListUserExpensesBetween(ctx, caller.User.ID, from, to)
	if err != nil {
		return Report{}, fmt.Errorf("load expenses for report: %w", err)
	}
	return Compute(expenses, caller.Now), nil
}
