package http

import (
	"net/http"

	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories.ListCategories(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.serverError(w, r, err, log.ComponentCategory, log.OpList)
		return
	}
	p := s.pageFor(r, "Categories", "categories")
	p.View = categoriesView{Categories: newCategoryViews(cats)}
	s.respond(w, r, http.StatusOK, "categories.html", p)
}

func (s *Server) categoryFormPage(r *http.Request) (page, error) {
	cats, err := s.categories.ListCategories(r.Context(), callerFrom(r.Context()))
	if err != nil {
		return page{}, err
	}
	p := s.pageFor(r, "Add category", "categories")
	p.View = categoriesView{Categories: newCategoryViews(cats)}
	return p, nil
}

func (s *Server) handleCreateCategoryForm(w http.ResponseWriter, r *http.Request) {
	p, err := s.categoryFormPage(r)
	if err != nil {
		s.serverError(w, r, err, log.ComponentCategory, log.OpList)
		return
	}
	s.respond(w, r, http.StatusOK, "add_category.html", p)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		s.badBody(w, r)
		return
	}

	c, err := s.categories.CreateCategory(r.Context(), callerFrom(r.Context()), services.CategoryInput{Name: parser.Get("name")})
	if err != nil {
		p, perr := s.categoryFormPage(r)
		if perr != nil {
			s.serverError(w, r, perr, log.ComponentCategory, log.OpList)
			return
		}
		p.Form = parser.Values("name")
		s.fail(w, r, err, "add_category.html", p, log.ComponentCategory, log.OpCreate)
		return
	}

	s.succeed(w, r, http.StatusCreated, "/category/", categoryView{ID: c.ID, Name: c.Name})
}
