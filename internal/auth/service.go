// Package auth implements registration, login and cookie sessions on top of
// the storage layer. Sessions roll forward once they pass half their
// lifetime.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// DefaultSessionDuration is how long a session lasts without renewal.
const DefaultSessionDuration = 30 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
)

// Store is the persistence the service needs.
type Store interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt, now time.Time) error
	GetSession(ctx context.Context, token string, now time.Time) (storage.SessionInfo, error)
	RenewSession(ctx context.Context, token string, expiresAt, now time.Time) error
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Session is an authenticated browser session.
type Session struct {
	Token     string
	User      core.User
	ExpiresAt time.Time
	// Renewed is set when Authenticate extended the expiry.
	Renewed bool
}

type Service struct {
	store    Store
	duration time.Duration
	logger   *log.Logger
}

func NewService(store Store, sessionDuration time.Duration, logger *log.Logger) *Service {
	if sessionDuration <= 0 {
		sessionDuration = DefaultSessionDuration
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{store: store, duration: sessionDuration, logger: logger.WithComponent(log.ComponentAuth)}
}

// SessionDuration is the lifetime granted to new and renewed sessions.
func (s *Service) SessionDuration() time.Duration {
	return s.duration
}

// Register creates an account and signs it in. Every failure leaves no
// account behind.
func (s *Service) Register(ctx context.Context, now time.Time, username, password, confirm string) (Session, error) {
	username = strings.TrimSpace(username)

	verr := core.NewValidationError()
	if err := core.ValidateUsername(username); err != nil {
		verr.Add("username", err.Error())
	}
	switch {
	case password == "":
		verr.Add("password", "password is required")
	case len(password) > MaxPasswordBytes:
		verr.Add("password", fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	if password != confirm {
		verr.Add("confirm_password", "Passwords do not match")
	}
	if err := verr.Err(); err != nil {
		return Session{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, hash)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			verr.Add("username", "Username already exists")
			return Session{}, verr
		}
		return Session{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", log.FieldUserID, user.ID, log.FieldUsername, user.Username)
	return s.start(ctx, user, now)
}

// Login verifies credentials and starts a session. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, now time.Time, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.logger.WarnContext(ctx, "Login failed", log.FieldUsername, username, log.FieldErrorType, log.ErrorTypeAuth)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "Login failed", log.FieldUsername, username, log.FieldErrorType, log.ErrorTypeAuth)
		return Session{}, ErrInvalidCredentials
	}

	return s.start(ctx, user, now)
}

func (s *Service) start(ctx context.Context, user core.User, now time.Time) (Session, error) {
	token, err := GenerateSessionToken()
	if err != nil {
		return Session{}, fmt.Errorf("generate session token: %w", err)
	}
	expiresAt := now.Add(s.duration)
	if err := s.store.CreateSession(ctx, token, user.ID, expiresAt, now); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	s.logger.InfoContext(ctx, "Session started", log.FieldUserID, user.ID, log.FieldOperation, log.OpLogin)
	return Session{Token: token, User: user, ExpiresAt: expiresAt}, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return err
	}
	return nil
}

// Authenticate resolves token to its session. A session in the second half
// of its lifetime is renewed for a full duration.
func (s *Service) Authenticate(ctx context.Context, token string, now time.Time) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	info, err := s.store.GetSession(ctx, token, now)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	sess := Session{Token: token, User: info.User, ExpiresAt: info.ExpiresAt}
	if info.ExpiresAt.Sub(now) < s.duration/2 {
		expiresAt := now.Add(s.duration)
		if err := s.store.RenewSession(ctx, token, expiresAt, now); err != nil {
			// the current session is still valid
			s.logger.WarnContext(ctx, "Session renewal failed", log.FieldUserID, info.User.ID, log.FieldError, err.Error())
		} else {
			sess.ExpiresAt = expiresAt
			sess.Renewed = true
		}
	}
	return sess, nil
}

// Profile returns the caller's own record.
func (s *Service) Profile(ctx context.Context, caller core.Caller) (core.User, error) {
	if !caller.Authenticated() {
		return core.User{}, core.ErrAnonymousCaller
	}
	return s.store.GetUserByID(ctx, caller.User.ID)
}

// SweepExpired deletes sessions that have expired at now.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Expired sessions removed", "count", n, log.FieldOperation, log.OpSweep)
	}
	return n, nil
}
