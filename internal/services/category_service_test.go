package services

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func newCategoryService(t *testing.T) (*CategoryService, *storage.Repository) {
	t.Helper()
	repo, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewCategoryService(repo, nil), repo
}

func TestCategoryService_CreateAndList(t *testing.T) {
	svc, _ := newCategoryService(t)
	ctx := context.Background()
	caller := core.NewCaller(core.User{ID: 1, Username: "jane"}, june15, "")

	c, err := svc.CreateCategory(ctx, caller, CategoryInput{Name: "  Travel "})
	require.NoError(t, err)
	assert.Equal(t, "Travel", c.Name)
	_, err = svc.CreateCategory(ctx, caller, CategoryInput{Name: "Food"})
	require.NoError(t, err)

	list, err := svc.ListCategories(ctx, caller)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Food", list[0].Name)
	assert.Equal(t, "Travel", list[1].Name)
}

func TestCategoryService_CreateDuplicate(t *testing.T) {
	svc, _ := newCategoryService(t)
	caller := core.NewCaller(core.User{ID: 1}, june15, "")

	_, err := svc.CreateCategory(context.Background(), caller, CategoryInput{Name: "Food"})
	require.NoError(t, err)

	_, err = svc.CreateCategory(context.Background(), caller, CategoryInput{Name: "Food"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Category with this Name already exists.", verr.First("name"))
}

func TestCategoryService_CreateInvalid(t *testing.T) {
	svc, _ := newCategoryService(t)
	caller := core.NewCaller(core.User{ID: 1}, june15, "")

	tests := map[string]struct {
		name string
		msg  string
	}{
		"blank":    {"   ", "This field is required."},
		"too long": {strings.Repeat("a", 101), "Ensure this value has at most 100 characters."},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateCategory(context.Background(), caller, CategoryInput{Name: tc.name})
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.msg, verr.First("name"))
		})
	}
}

func TestCategoryService_Anonymous(t *testing.T) {
	svc, _ := newCategoryService(t)

	_, err := svc.ListCategories(context.Background(), core.Caller{})
	assert.ErrorIs(t, err, core.ErrAnonymousCaller)
	_, err = svc.CreateCategory(context.Background(), core.Caller{}, CategoryInput{Name: "Food"})
	assert.ErrorIs(t, err, core.ErrAnonymousCaller)
}
