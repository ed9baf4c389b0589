// Package web serves the staff-facing HTTP interface: login, the per-tab
// application wizard and its confirmation pages.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/sinapp/auth"
	"github.com/hazyhaar/sinapp/interop"
	"github.com/hazyhaar/sinapp/observability"
	"github.com/hazyhaar/sinapp/routes"
	"github.com/hazyhaar/sinapp/session"
	"github.com/hazyhaar/sinapp/shield"
	"github.com/hazyhaar/sinapp/wizard"
)

// Authenticator checks staff credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*auth.Claims, error)
}

// Deps are the collaborators a Server is built from. Logger, Events and Now
// are optional.
type Deps struct {
	Logger        *slog.Logger
	Sessions      *session.Manager
	Wizard        *wizard.Store
	Users         Authenticator
	Cases         interop.CaseCreator
	Events        observability.Recorder
	LoginLimiter  *shield.RateLimiter
	JWTSecret     []byte
	TokenTTL      time.Duration
	SecureCookies bool
	Now           func() time.Time
}

// Server is the HTTP front end.
type Server struct {
	logger   *slog.Logger
	sessions *session.Manager
	wizard   *wizard.Store
	users    Authenticator
	cases    interop.CaseCreator
	events   observability.Recorder
	limiter  *shield.RateLimiter
	secret   []byte
	tokenTTL time.Duration
	secure   bool
	now      func() time.Time
}

// New validates deps and builds a Server.
func New(d Deps) (*Server, error) {
	switch {
	case d.Sessions == nil:
		return nil, errors.New("web: Sessions is required")
	case d.Wizard == nil:
		return nil, errors.New("web: Wizard is required")
	case d.Users == nil:
		return nil, errors.New("web: Users is required")
	case d.Cases == nil:
		return nil, errors.New("web: Cases is required")
	case len(d.JWTSecret) == 0:
		return nil, errors.New("web: JWTSecret is required")
	}
	s := &Server{
		logger:   d.Logger,
		sessions: d.Sessions,
		wizard:   d.Wizard,
		users:    d.Users,
		cases:    d.Cases,
		events:   d.Events,
		limiter:  d.LoginLimiter,
		secret:   d.JWTSecret,
		tokenTTL: d.TokenTTL,
		secure:   d.SecureCookies,
		now:      d.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.events == nil {
		s.events = observability.Nop{}
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 8 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// wizardRoutes are served by the wizard handler in every language.
var wizardRoutes = []routes.ID{
	routes.PrivacyStatement,
	routes.RequestDetails,
	routes.PrimaryDocuments,
	routes.SecondaryDocument,
	routes.PreviousSin,
	routes.PersonalInformation,
	routes.CurrentName,
	routes.BirthDetails,
	routes.ParentDetails,
	routes.ContactInformation,
	routes.Review,
	routes.Abandoned,
	routes.Confirmation,
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.Stack(s.logger) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/static/*", staticHandler())
	r.Get("/", s.handleRoot)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.secret, s.secure))

		for _, lang := range routes.Langs {
			login := r.With(withLang(lang))
			if s.limiter != nil {
				login = login.With(s.limiter.Middleware)
			}
			login.Get(routes.Path(routes.Login, lang), s.handleLoginPage(lang))
			login.With(s.sessions.Middleware).Post(routes.Path(routes.Login, lang), s.handleLogin(lang))

			r.With(withLang(lang), s.sessions.Middleware).
				Post(routes.Path(routes.Logout, lang), s.handleLogout(lang))
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleStaff, loginPath))
			r.Use(s.sessions.Middleware)
			r.Use(s.bindStaff)

			for _, lang := range routes.Langs {
				for _, id := range wizardRoutes {
					h := s.handleWizard(id, lang)
					r.With(withLang(lang)).Get(routes.Path(id, lang), h)
					r.With(withLang(lang)).Post(routes.Path(id, lang), h)
				}
			}
		})
	})
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	lang := routes.Negotiate(r.Header.Get("Accept-Language"))
	http.Redirect(w, r, routes.Path(routes.PrivacyStatement, lang), http.StatusFound)
}

// langOf infers the language from a request path.
func langOf(path string) routes.Lang {
	if _, lang, ok := routes.Resolve(path); ok {
		return lang
	}
	if strings.HasPrefix(path, "/fr/") {
		return routes.FR
	}
	return routes.EN
}

func loginPath(r *http.Request) string {
	return routes.Path(routes.Login, langOf(r.URL.Path))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
