package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
)

const invalidCredentials = "Invalid credentials"

type loginView struct {
	Message string `json:"message"`
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	p := s.pageFor(r, "Login", "login")
	p.View = loginView{Message: "Login Page"}
	s.respond(w, r, http.StatusOK, "login.html", p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		s.badBody(w, r)
		return
	}
	username := parser.Get("username")

	sess, err := s.auth.Login(r.Context(), s.now(), username, parser.Secret("password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.metrics.LoginFailed()
			if wantsJSON(r) {
				writeOrLog(w, r, JSONError(http.StatusBadRequest, invalidCredentials))
				return
			}
			p := s.pageFor(r, "Login", "login")
			p.Error = invalidCredentials
			p.Form = map[string]string{"username": username}
			s.respond(w, r, http.StatusBadRequest, "login.html", p)
			return
		}
		s.serverError(w, r, err, log.ComponentAuth, log.OpLogin)
		return
	}

	s.setSessionCookie(w, sess)
	s.succeed(w, r, http.StatusOK, "/dashboard/", newUserView(sess.User))
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	p := s.pageFor(r, "Register", "register")
	p.View = loginView{Message: "Register Page"}
	s.respond(w, r, http.StatusOK, "register.html", p)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		s.badBody(w, r)
		return
	}
	username := parser.Get("username")

	sess, err := s.auth.Register(r.Context(), s.now(), username, parser.Secret("password"), parser.Secret("confirm_password"))
	if err != nil {
		p := s.pageFor(r, "Register", "register")
		p.Form = map[string]string{"username": username}
		s.fail(w, r, err, "register.html", p, log.ComponentAuth, log.OpRegister)
		return
	}

	s.setSessionCookie(w, sess)
	s.succeed(w, r, http.StatusCreated, "/dashboard/", newUserView(sess.User))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), sessionToken(r)); err != nil {
		s.serverError(w, r, err, log.ComponentAuth, log.OpLogout)
		return
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Profile(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.serverError(w, r, err, log.ComponentAuth, log.OpRead)
		return
	}
	p := s.pageFor(r, "Profile", "profile")
	p.View = newUserView(user)
	s.respond(w, r, http.StatusOK, "profile.html", p)
}

// badBody answers a body that could not be parsed.
func (s *Server) badBody(w http.ResponseWriter, r *http.Request) {
	verr := core.NewValidationError()
	verr.Add("non_field_errors", "Invalid request body.")
	if wantsJSON(r) {
		writeOrLog(w, r, NewResponse().Status(http.StatusBadRequest).JSON(errorsView(verr.Fields)))
		return
	}
	writeOrLog(w, r, BadRequestError("Invalid request body."))
}
