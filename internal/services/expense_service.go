package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/metrics"
)

// ExpenseStore is the persistence ExpenseService needs.
type ExpenseStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListUserExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
}

// Publisher announces stored expenses. Nil disables publishing.
type Publisher interface {
	PublishExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error
}

// ExpenseInput is the create-expense form. Amount stays a string until the
// decimal rules in core.ParseAmount have run.
type ExpenseInput struct {
	Amount      string `form:"amount" validate:"required,max=32"`
	Description string `form:"description" validate:"max=255"`
	CategoryID  string `form:"category" validate:"required,number"`
}

// Dashboard is the data behind the dashboard page.
type Dashboard struct {
	Expenses   []core.Expense
	Categories []core.Category
	MonthTotal core.Money
	MonthCount int
}

// ExpenseService orchestrates expense operations across SQLite and AMQP
type ExpenseService struct {
	store         ExpenseStore
	publisher     Publisher
	metrics       *metrics.Metrics
	ownerOverride string
	validate      *validator.Validate
	logger        *log.Logger
}

func NewExpenseService(store ExpenseStore, publisher Publisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Nop()
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		validate:  newValidator(),
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

// WithOwnerOverride assigns every new expense to username instead of the
// caller.
func (s *ExpenseService) WithOwnerOverride(username string) *ExpenseService {
	s.ownerOverride = strings.TrimSpace(username)
	return s
}

func (s *ExpenseService) WithMetrics(m *metrics.Metrics) *ExpenseService {
	s.metrics = m
	return s
}

// CreateExpense validates in, stores it dated on the caller's current day
// and publishes expense.created. A failed publish is logged only.
func (s *ExpenseService) CreateExpense(ctx context.Context, caller core.Caller, in ExpenseInput) (core.Expense, error) {
	if !caller.Authenticated() {
		return core.Expense{}, core.ErrAnonymousCaller
	}

	in.Amount = strings.TrimSpace(in.Amount)
	in.Description = strings.TrimSpace(in.Description)
	in.CategoryID = strings.TrimSpace(in.CategoryID)

	verr := core.NewValidationError()
	if err := s.validate.Struct(in); err != nil {
		ve, ok := toValidationError(err).(*core.ValidationError)
		if !ok {
			return core.Expense{}, err
		}
		verr = ve
	}

	var amount core.Money
	if verr.First("amount") == "" {
		m, err := core.ParseAmount(in.Amount)
		if err != nil {
			verr.Add("amount", amountMessage(err))
		}
		amount = m
	}

	var category core.Category
	if verr.First("category") == "" {
		c, err := s.lookupCategory(ctx, in.CategoryID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			verr.Add("category", "Select a valid choice. That choice is not one of the available choices.")
		case err != nil:
			return core.Expense{}, err
		}
		category = c
	}

	if err := verr.Err(); err != nil {
		return core.Expense{}, err
	}

	owner, err := s.owner(ctx, caller)
	if err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		UserID:       owner.ID,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		Amount:       amount,
		Description:  in.Description,
		Date:         caller.Today(),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.metrics.ExpenseCreated()

	log.NewStructuredLogger(s.logger).LogExpenseCreated(ctx, created.ID, created.UserID, created.CategoryName, created.Amount.String())

	s.publish(ctx, created)
	return created, nil
}

func (s *ExpenseService) lookupCategory(ctx context.Context, raw string) (core.Category, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return core.Category{}, core.ErrNotFound
	}
	c, err := s.store.GetCategory(ctx, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, fmt.Errorf("load category: %w", err)
	}
	return c, err
}

func (s *ExpenseService) owner(ctx context.Context, caller core.Caller) (core.User, error) {
	if s.ownerOverride == "" {
		return caller.User, nil
	}
	u, err := s.store.GetUserByUsername(ctx, s.ownerOverride)
	if err != nil {
		return core.User{}, fmt.Errorf("expense owner %q: %w", s.ownerOverride, err)
	}
	return u, nil
}

func (s *ExpenseService) publish(ctx context.Context, e core.Expense) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewExpenseCreatedMessage(e)
	err := s.publisher.PublishExpenseCreated(ctx, msg)
	s.metrics.EventPublished(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense created message",
			log.FieldExpenseID, e.ID,
			log.FieldMessageID, msg.MessageID,
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpPublish)
	}
}

// ListExpenses returns the caller's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, caller core.Caller) ([]core.Expense, error) {
	if !caller.Authenticated() {
		return nil, core.ErrAnonymousCaller
	}
	expenses, err := s.store.ListUserExpenses(ctx, caller.User.ID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Dashboard gathers the caller's expenses, every category and the total of
// the current calendar month.
func (s *ExpenseService) Dashboard(ctx context.Context, caller core.Caller) (Dashboard, error) {
	expenses, err := s.ListExpenses(ctx, caller)
	if err != nil {
		return Dashboard{}, err
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list categories: %w", err)
	}

	d := Dashboard{Expenses: expenses, Categories: categories}
	today := caller.Today()
	for _, e := range expenses {
		if e.Date.Year() == today.Year() && e.Date.Month() == today.Month() {
			d.MonthTotal = d.MonthTotal.Add(e.Amount)
			d.MonthCount++
		}
	}
	return d, nil
}
