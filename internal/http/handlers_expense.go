package http

import (
	"net/http"

	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

type createExpenseView struct {
	Categories []categoryView `json:"categories"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.expenses.Dashboard(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.serverError(w, r, err, log.ComponentExpense, log.OpRead)
		return
	}
	p := s.pageFor(r, "Dashboard", "dashboard")
	p.View = newDashboardView(d)
	s.respond(w, r, http.StatusOK, "dashboard.html", p)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.serverError(w, r, err, log.ComponentExpense, log.OpList)
		return
	}
	p := s.pageFor(r, "Transactions", "expenses")
	p.View = expensesView{Expenses: newExpenseViews(expenses)}
	s.respond(w, r, http.StatusOK, "transactions.html", p)
}

// expenseFormPage loads the category choices for the create form.
func (s *Server) expenseFormPage(r *http.Request) (page, error) {
	cats, err := s.categories.ListCategories(r.Context(), callerFrom(r.Context()))
	if err != nil {
		return page{}, err
	}
	p := s.pageFor(r, "Add transaction", "expenses")
	p.View = createExpenseView{Categories: newCategoryViews(cats)}
	return p, nil
}

func (s *Server) handleCreateExpenseForm(w http.ResponseWriter, r *http.Request) {
	p, err := s.expenseFormPage(r)
	if err != nil {
		s.serverError(w, r, err, log.ComponentCategory, log.OpList)
		return
	}
	s.respond(w, r, http.StatusOK, "transaction_create.html", p)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		s.badBody(w, r)
		return
	}
	in := services.ExpenseInput{
		Amount:      parser.Get("amount"),
		Description: parser.Get("description"),
		CategoryID:  parser.Get("category"),
	}

	e, err := s.expenses.CreateExpense(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		p, perr := s.expenseFormPage(r)
		if perr != nil {
			s.serverError(w, r, perr, log.ComponentCategory, log.OpList)
			return
		}
		p.Form = parser.Values("amount", "description", "category")
		s.fail(w, r, err, "transaction_create.html", p, log.ComponentExpense, log.OpCreate)
		return
	}

	s.succeed(w, r, http.StatusCreated, "/expenses/", newExpenseView(e))
}
