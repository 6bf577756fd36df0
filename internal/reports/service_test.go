package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

type fakeSource struct {
	expenses []core.Expense
	err      error

	userID   int64
	from, to core.Date
}

func (f *fakeSource) ListUserExpensesBetween(_ context.Context, userID int64, from, to core.Date) ([]core.Expense, error) {
	f.userID, f.from, f.to = userID, from, to
	return f.expenses, f.err
}

func TestService_Build(t *testing.T) {
	src := &fakeSource{expenses: []core.Expense{
		expense("Food", "60", 2025, time.June, 1),
		expense("Travel", "40", 2025, time.June, 3),
	}}
	svc := NewService(src)
	caller := core.NewCaller(core.User{ID: 42, Username: "jane"}, june15, "req_test")

	report, err := svc.Build(context.Background(), caller)
	require.NoError(t, err)

	assert.Equal(t, int64(42), src.userID)
	assert.Equal(t, core.NewDate(2024, time.July, 1), src.from)
	assert.Equal(t, core.NewDate(2025, time.June, 30), src.to)

	assert.True(t, report.Bars.TotalExpense.Equal(dec("100")))
	require.Len(t, report.Categories, 2)
	assert.InDelta(t, 60.0, report.Categories[0].Percentage, 1e-9)
	assert.Len(t, report.Trend, 12)
	assert.Equal(t, int64(100), report.Trend[11].Total)
	assert.Equal(t, june15, report.GeneratedAt)
}

func TestService_Build_NoExpenses(t *testing.T) {
	svc := NewService(&fakeSource{})
	caller := core.NewCaller(core.User{ID: 1}, june15, "")

	report, err := svc.Build(context.Background(), caller)
	require.NoError(t, err)

	assert.True(t, report.Bars.TotalExpense.IsZero())
	assert.Empty(t, report.Categories)
	for _, p := range report.Trend {
		assert.Zero(t, p.Total)
	}
}

func TestService_Build_Errors(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("disk on fire")})

	_, err := svc.Build(context.Background(), core.Caller{Now: june15})
	assert.ErrorIs(t, err, core.ErrAnonymousCaller)

	_, err = svc.Build(context.Background(), core.NewCaller(core.User{ID: 1}, june15, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
