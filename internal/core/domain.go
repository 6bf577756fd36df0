package core

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	MaxCategoryNameLength = 100
	MaxDescriptionLength  = 255
	MaxUsernameLength     = 150

	// DateLayout is the storage and form layout for calendar dates.
	DateLayout = "2006-01-02"
)

type (
	// Date is a calendar date without a meaningful time of day.
	Date struct {
		time.Time
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID   int64
		Name string
	}

	Expense struct {
		ID           int64
		UserID       int64
		Username     string
		CategoryID   int64
		CategoryName string
		Amount       Money
		Description  string
		Date         Date
		CreatedAt    time.Time
	}

	// Caller carries the identity and clock of a single request into
	// service operations.
	Caller struct {
		User      User
		Now       time.Time
		RequestID string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeAmount   = errors.New("amount must be greater than or equal to zero")
	ErrTooManyDecimals  = errors.New("amount must have at most 2 decimal places")
	ErrAmountTooLarge   = errors.New("amount must have at most 10 digits")
	ErrEmptyName        = errors.New("name is required")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrAnonymousCaller  = errors.New("caller is not authenticated")
	ErrInvalidDateValue = errors.New("invalid date")
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDateValue, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Display renders the date as "02 January 2006".
func (d Date) Display() string {
	return d.Format("02 January 2006")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewCaller builds the request scope for an authenticated user.
func NewCaller(u User, now time.Time, requestID string) Caller {
	return Caller{User: u, Now: now, RequestID: requestID}
}

// Authenticated reports whether the caller has a persisted identity.
func (c Caller) Authenticated() bool {
	return c.User.ID > 0
}

// Today is the caller's current calendar date.
func (c Caller) Today() Date {
	return DateOf(c.Now)
}

// ValidationError collects field-keyed messages for a rejected input.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// Err returns e as an error, or nil when no field failed.
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// First returns the first message recorded for field.
func (e *ValidationError) First(field string) string {
	if e == nil || len(e.Fields[field]) == 0 {
		return ""
	}
	return e.Fields[field][0]
}

// NormalizeCategoryName trims and validates a category name.
func NormalizeCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len([]rune(name)) > MaxCategoryNameLength {
		return "", fmt.Errorf("name must be at most %d characters", MaxCategoryNameLength)
	}
	return name, nil
}

// ValidateUsername applies the account name rules: 1-150 characters of
// letters, digits and @.+-_ only.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if len([]rune(username)) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username may contain only letters, digits and @/./+/-/_")
	}
	return nil
}

func (e Expense) Validate() error {
	verr := NewValidationError()
	if err := e.Amount.Validate(); err != nil {
		verr.Add("amount", err.Error())
	}
	if len([]rune(e.Description)) > MaxDescriptionLength {
		verr.Add("description", fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength))
	}
	if e.CategoryID <= 0 {
		verr.Add("category", "category is required")
	}
	if e.UserID <= 0 {
		verr.Add("user", "owner is required")
	}
	if err := e.Date.Validate(); err != nil {
		verr.Add("date", err.Error())
	}
	return verr.Err()
}
