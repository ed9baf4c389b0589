package web

import (
	"errors"
	"net/http"

	"github.com/hazyhaar/sinapp/apperr"
	"github.com/hazyhaar/sinapp/auth"
	"github.com/hazyhaar/sinapp/horosafe"
	"github.com/hazyhaar/sinapp/observability"
	"github.com/hazyhaar/sinapp/routes"
	"github.com/hazyhaar/sinapp/session"
	"github.com/hazyhaar/sinapp/shield"
)

func (s *Server) handleLoginPage(lang routes.Lang) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.newPage(r, lang, "login.title")
		p.FormAction = routes.Path(routes.Login, lang)
		p.AltLang = routes.Path(routes.Login, lang.Other())
		p.ReturnTo = r.URL.Query().Get("returnTo")
		s.render(w, r, http.StatusOK, "login", p)
	}
}

func (s *Server) handleLogin(lang routes.Lang) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		email := r.PostForm.Get("email")
		returnTo := r.PostForm.Get("returnTo")

		claims, err := s.users.Authenticate(ctx, email, r.PostForm.Get("password"))
		if err != nil {
			s.events.Record(ctx, observability.Event{
				Type:     observability.TypeAuthLogin,
				EntityID: email,
				Action:   "login",
			})
			if !errors.Is(err, auth.ErrBadCredentials) {
				shield.GetLogger(ctx).Error("login lookup failed", "error", err)
			}
			p := s.newPage(r, lang, "login.title")
			p.FormAction = routes.Path(routes.Login, lang)
			p.Email = email
			p.ReturnTo = returnTo
			p.Failed = true
			s.render(w, r, http.StatusUnauthorized, "login", p)
			return
		}

		token, err := auth.GenerateToken(s.secret, claims, s.tokenTTL)
		if err != nil {
			s.renderError(w, r, lang, err)
			return
		}
		auth.SetTokenCookie(w, token, s.tokenTTL, s.secure)
		if sess := session.FromContext(ctx); sess != nil {
			// Progress never carries over from a previous login.
			sess.Reset()
			if err := session.Set(sess, staffKey, claims.UserID); err != nil {
				s.renderError(w, r, lang, apperr.Wrap(apperr.CodeSessionStore, "could not bind session", err))
				return
			}
		}
		s.events.Record(ctx, observability.Event{
			Type:     observability.TypeAuthLogin,
			EntityID: claims.Email,
			UserID:   claims.UserID,
			Action:   "login",
			Success:  true,
		})
		shield.GetLogger(ctx).Info("staff login", "user_id", claims.UserID)

		target := routes.Path(routes.PrivacyStatement, lang)
		if safe, err := horosafe.SafeRedirect(returnTo); err == nil {
			target = safe
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}

// handleLogout drops the token and every wizard snapshot held by the
// session.
func (s *Server) handleLogout(lang routes.Lang) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess := session.FromContext(r.Context()); sess != nil {
			sess.Destroy()
		}
		auth.ClearTokenCookie(w, s.secure)
		shield.SetFlash(w, "info", "signed-out")
		http.Redirect(w, r, routes.Path(routes.Login, lang), http.StatusSeeOther)
	}
}

// staffKey holds the id of the staff member a session belongs to.
var staffKey = session.Key[string]{Name: "staff"}

// bindStaff resets a session that was started by another staff member, so a
// token for one user never resumes applications entered by another.
func (s *Server) bindStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess := session.FromContext(ctx)
		claims := auth.GetClaims(ctx)
		if sess == nil || claims == nil {
			next.ServeHTTP(w, r)
			return
		}
		owner, ok, err := session.Get(sess, staffKey)
		if err != nil || (ok && owner != claims.UserID) {
			shield.GetLogger(ctx).Warn("session reset for new staff member", "user_id", claims.UserID, "error", err)
			sess.Reset()
			ok = false
		}
		if !ok {
			if err := session.Set(sess, staffKey, claims.UserID); err != nil {
				s.renderError(w, r, langOf(r.URL.Path), apperr.Wrap(apperr.CodeSessionStore, "could not bind session", err))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
