package storage

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

type expenseRow struct {
	ID           int64     `db:"id"`
	UserID       int64     `db:"user_id"`
	Username     string    `db:"username"`
	CategoryID   int64     `db:"category_id"`
	CategoryName string    `db:"category_name"`
	AmountCents  int64     `db:"amount_cents"`
	Description  string    `db:"description"`
	Date         string    `db:"date"`
	CreatedAt    time.Time `db:"created_at"`
}

func (e expenseRow) toCore() (core.Expense, error) {
	d, err := core.ParseDate(e.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	return core.Expense{
		ID:           e.ID,
		UserID:       e.UserID,
		Username:     e.Username,
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		Amount:       core.Money{Cents: e.AmountCents},
		Description:  e.Description,
		Date:         d,
		CreatedAt:    e.CreatedAt,
	}, nil
}

func toExpenses(rows []expenseRow) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

const selectExpense = `
	SELECT e.id, e.user_id, u.username, e.category_id, c.name AS category_name,
	       e.amount_cents, e.description, e.date, e.created_at
	FROM expenses e
	JOIN users u ON u.id = e.user_id
	JOIN categories c ON c.id = e.category_id`

// CreateExpense persists e and returns it with its id, owner name and
// category name filled in. A dangling user or category reference yields
// core.ErrNotFound.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, category_id, amount_cents, description, date) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.CategoryID, e.Amount.Cents, e.Description, e.Date.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return core.Expense{}, fmt.Errorf("expense references: %w", core.ErrNotFound)
		}
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	return r.GetExpense(ctx, id)
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	var row expenseRow
	if err := r.db.GetContext(ctx, &row, selectExpense+` WHERE e.id = ?`, id); err != nil {
		return core.Expense{}, notFound(err, "expense")
	}
	return row.toCore()
}

// ListUserExpenses returns a user's expenses, newest date first.
func (r *Repository) ListUserExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	var rows []expenseRow
	if err := r.db.SelectContext(ctx, &rows, selectExpense+` WHERE e.user_id = ? ORDER BY e.date DESC, e.id DESC`, userID); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return toExpenses(rows)
}

// ListUserExpensesBetween returns a user's expenses dated within [from, to],
// oldest first.
func (r *Repository) ListUserExpensesBetween(ctx context.Context, userID int64, from, to core.Date) ([]core.Expense, error) {
	var rows []expenseRow
	err := r.db.SelectContext(ctx, &rows,
		selectExpense+` WHERE e.user_id = ? AND e.date BETWEEN ? AND ? ORDER BY e.date, e.id`,
		userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list expenses between %s and %s: %w", from, to, err)
	}
	return toExpenses(rows)
}
