package http

import (
	"context"
	"errors"
	"net/http"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
)

const (
	SessionCookieName = "session"
	loginPath         = "/login/"
)

type callerKey struct{}

// callerFrom returns the caller stored by requireAuth. Outside protected
// routes it is the anonymous caller.
func callerFrom(ctx context.Context) core.Caller {
	c, _ := ctx.Value(callerKey{}).(core.Caller)
	return c
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(sess.ExpiresAt.Sub(s.now()).Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// requireAuth resolves the session cookie into a core.Caller. Anonymous
// callers are redirected to the login page.
func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return security.NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := s.now()
		token := sessionToken(r)

		sess, err := s.auth.Authenticate(r.Context(), token, now)
		if err != nil {
			if errors.Is(err, auth.ErrNoSession) {
				if token != "" {
					s.clearSessionCookie(w)
				}
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			s.serverError(w, r, err, log.ComponentAuth, "authenticate")
			return
		}
		if sess.Renewed {
			s.setSessionCookie(w, sess)
		}

		caller := core.NewCaller(sess.User, now, trace.GetRequestID(r.Context()))
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		reqLogger := log.FromContext(ctx).With(log.FieldUserID, sess.User.ID)
		ctx = log.WithLogger(ctx, reqLogger)

		next(w, r.WithContext(ctx))
	}))
}
