// Package memory is an in-process ExpenseWriter used by tests and by the
// export worker in dry-run mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

var _ sheets.ExpenseWriter = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
	rows  map[int64]int
}

func New() *Store {
	return &Store{rows: make(map[int64]int)}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := sheets.CheckRow(e); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.rows[e.ID]; ok {
		return fmt.Sprintf("mem:%d", row), nil
	}
	s.items = append(s.items, e)
	s.rows[e.ID] = len(s.items)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...)
}
