package storage

import (
	"context"
	"fmt"

	"expensetracker/internal/core"
)

type categoryRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// ListCategories returns every category ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name FROM categories ORDER BY name COLLATE NOCASE, id`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Category{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var row categoryRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM categories WHERE id = ?`, id); err != nil {
		return core.Category{}, notFound(err, "category")
	}
	return core.Category{ID: row.ID, Name: row.Name}, nil
}

// CreateCategory inserts name. Names are unique ignoring case; a duplicate
// yields core.ErrConflict.
func (r *Repository) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("category %q: %w", name, core.ErrConflict)
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return core.Category{ID: id, Name: name}, nil
}

// EnsureCategory returns the category called name, creating it if missing.
func (r *Repository) EnsureCategory(ctx context.Context, name string) (core.Category, error) {
	if _, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, name); err != nil {
		return core.Category{}, fmt.Errorf("ensure category: %w", err)
	}
	var row categoryRow
	if err := r.db.GetContext(ctx, &row, `SELECT id, name FROM categories WHERE name = ?`, name); err != nil {
		return core.Category{}, notFound(err, "category")
	}
	return core.Category{ID: row.ID, Name: row.Name}, nil
}
