package storage

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	Token        string
	User         core.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

type sessionRow struct {
	userRow
	Token        string `db:"token"`
	LastActivity int64  `db:"last_activity"`
	ExpiresAt    int64  `db:"expires_at"`
}

// CreateSession creates a new session for a user.
func (r *Repository) CreateSession(ctx context.Context, token string, userID int64, expiresAt, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session for token if it has not expired at now.
func (r *Repository) GetSession(ctx context.Context, token string, now time.Time) (SessionInfo, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT u.id, u.username, u.password_hash, u.created_at,
		       s.token, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`,
		token, now.Unix())
	if err != nil {
		return SessionInfo{}, notFound(err, "session")
	}
	return SessionInfo{
		Token:        row.Token,
		User:         row.userRow.toCore(),
		LastActivity: time.Unix(row.LastActivity, 0),
		ExpiresAt:    time.Unix(row.ExpiresAt, 0),
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (r *Repository) RenewSession(ctx context.Context, token string, expiresAt, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?`,
		now.Unix(), expiresAt.Unix(), token)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

// DeleteSession removes a session by token.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now and
// reports how many were removed.
func (r *Repository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
