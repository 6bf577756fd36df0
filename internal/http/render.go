package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

// page is the template data for every full page.
type page struct {
	Title  string
	Nav    string
	User   *userView
	Errors map[string][]string
	Error  string
	Form   map[string]string
	View   any
}

// FieldError returns the first message for field.
func (p page) FieldError(field string) string {
	if msgs := p.Errors[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (s *Server) pageFor(r *http.Request, title, nav string) page {
	p := page{Title: title, Nav: nav}
	if c := callerFrom(r.Context()); c.Authenticated() {
		u := newUserView(c.User)
		p.User = &u
	}
	return p
}

// respond writes p.View as JSON or renders tmpl, depending on Accept.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, tmpl string, p page) {
	b := NewResponse().Status(status)
	if wantsJSON(r) {
		b.JSON(p.View)
	} else {
		b.HTML(s.templates[tmpl], "base", p)
	}
	if err := b.Write(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Response rendering failed",
			log.FieldError, err.Error(),
			log.FieldComponent, log.ComponentTemplate,
			log.FieldOperation, log.OpRender,
			"template", tmpl)
	}
}

// rejectForm answers a failed POST with 400: field errors as JSON, or the
// form page with errors and the submitted values.
func (s *Server) rejectForm(w http.ResponseWriter, r *http.Request, tmpl string, p page, verr *core.ValidationError) {
	log.FromContext(r.Context()).InfoContext(r.Context(), "Form rejected",
		log.FieldPath, r.URL.Path,
		log.FieldErrorType, log.ErrorTypeValidation,
		"fields", len(verr.Fields))
	if wantsJSON(r) {
		writeOrLog(w, r, NewResponse().Status(http.StatusBadRequest).JSON(errorsView(verr.Fields)))
		return
	}
	p.Errors = verr.Fields
	s.respond(w, r, http.StatusBadRequest, tmpl, p)
}

// succeed redirects browsers to location and gives JSON clients status
// with view.
func (s *Server) succeed(w http.ResponseWriter, r *http.Request, status int, location string, view any) {
	if wantsJSON(r) {
		writeOrLog(w, r, NewResponse().Status(status).Header("Location", location).JSON(view))
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// fail maps a service error to a response. Validation errors go back to
// the form, anything else is a logged 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, tmpl string, p page, component, op string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		s.rejectForm(w, r, tmpl, p, verr)
	case errors.Is(err, core.ErrAnonymousCaller):
		http.Redirect(w, r, loginPath, http.StatusFound)
	default:
		s.serverError(w, r, err, component, op)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error, component, op string) {
	errorType := log.ErrorTypeInternal
	if errors.Is(err, core.ErrNotFound) {
		errorType = log.ErrorTypeNotFound
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err, component, op,
		log.NewFields().WithErrorType(errorType))

	if wantsJSON(r) {
		writeOrLog(w, r, JSONError(http.StatusInternalServerError, "internal server error"))
		return
	}
	writeOrLog(w, r, InternalServerError("Something went wrong. Please try again."))
}

func writeOrLog(w http.ResponseWriter, r *http.Request, b *ResponseBuilder) {
	if err := b.Write(w); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Response write failed", log.FieldError, err.Error())
	}
}
