package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// CategoryStore is the persistence CategoryService needs.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, name string) (core.Category, error)
}

// CategoryInput is the create-category form.
type CategoryInput struct {
	Name string `form:"name" validate:"required,max=100"`
}

type CategoryService struct {
	store    CategoryStore
	validate *validator.Validate
	logger   *log.Logger
}

func NewCategoryService(store CategoryStore, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.Nop()
	}
	return &CategoryService{
		store:    store,
		validate: newValidator(),
		logger:   logger.WithComponent(log.ComponentCategory),
	}
}

// ListCategories returns all categories ordered by name. Categories are
// shared between users.
func (s *CategoryService) ListCategories(ctx context.Context, caller core.Caller) ([]core.Category, error) {
	if !caller.Authenticated() {
		return nil, core.ErrAnonymousCaller
	}
	return s.store.ListCategories(ctx)
}

// CreateCategory validates and stores a new category.
func (s *CategoryService) CreateCategory(ctx context.Context, caller core.Caller, in CategoryInput) (core.Category, error) {
	if !caller.Authenticated() {
		return core.Category{}, core.ErrAnonymousCaller
	}

	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return core.Category{}, toValidationError(err)
	}
	name, err := core.NormalizeCategoryName(in.Name)
	if err != nil {
		verr := core.NewValidationError()
		verr.Add("name", err.Error())
		return core.Category{}, verr
	}

	cat, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			verr := core.NewValidationError()
			verr.Add("name", "Category with this Name already exists.")
			return core.Category{}, verr
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "Category created",
		log.FieldCategory, cat.Name,
		log.FieldUserID, caller.User.ID,
		log.FieldRequestID, caller.RequestID,
		log.FieldOperation, log.OpCreate)
	return cat, nil
}
