package storage

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (u userRow) toCore() core.User {
	return core.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

const selectUser = `SELECT id, username, password_hash, created_at FROM users`

// CreateUser stores a new identity. A taken username yields core.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("user %q: %w", username, core.ErrConflict)
		}
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, selectUser+` WHERE id = ?`, id); err != nil {
		return core.User{}, notFound(err, "user")
	}
	return row.toCore(), nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, selectUser+` WHERE username = ?`, username); err != nil {
		return core.User{}, notFound(err, "user")
	}
	return row.toCore(), nil
}

// ListUsers returns every identity ordered by username.
func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, selectUser+` ORDER BY username`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toCore())
	}
	return out, nil
}
