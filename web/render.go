package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/hazyhaar/sinapp/apperr"
	"github.com/hazyhaar/sinapp/auth"
	"github.com/hazyhaar/sinapp/kit"
	"github.com/hazyhaar/sinapp/routes"
	"github.com/hazyhaar/sinapp/shield"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{"loading", "login", "step", "review", "abandoned", "confirmation", "error"}

var pages = func() map[string]*template.Template {
	m := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		m[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return m
}()

func staticHandler() http.Handler {
	return http.FileServerFS(staticFS)
}

// page is the data every template receives. Templates call {{.T "key"}}.
type page struct {
	translator
	Lang      routes.Lang
	Title     string
	AltLang   string
	LogoutURL string
	User      *auth.Claims
	Flash     *shield.FlashMessage

	FormAction string
	TabID      string
	Fields     []fieldView
	HasErrors  bool
	CanGoBack  bool
	Review     []reviewSection
	CaseID     string

	ErrorCode string
	ReturnURL string

	Email    string
	ReturnTo string
	Failed   bool
}

func (s *Server) newPage(r *http.Request, lang routes.Lang, titleKey string) *page {
	t := newTranslator(lang)
	return &page{
		translator: t,
		Lang:       lang,
		Title:      t.T(titleKey),
		LogoutURL:  routes.Path(routes.Logout, lang),
		User:       auth.GetClaims(r.Context()),
		Flash:      shield.GetFlash(r.Context()),
	}
}

// render executes name into a buffer first so that a template failure never
// produces a half-written page, and so the session commit runs before any
// byte is sent.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p *page) {
	var buf bytes.Buffer
	if err := pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		shield.GetLogger(r.Context()).Error("render failed", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderError logs err with its code and shows the error page with the
// status the code maps to.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, lang routes.Lang, err error) {
	code := apperr.CodeOf(err)
	status := apperr.StatusOf(err)
	attrs := []any{"code", code, "status", status, "error", err}
	if ae, ok := apperr.As(err); ok && ae.UpstreamCode != 0 {
		attrs = append(attrs, "upstream_status", ae.UpstreamCode, "upstream_body", ae.ResponseBody)
	}
	logger := shield.GetLogger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	p := s.newPage(r, lang, "error.page")
	p.ErrorCode = string(code)
	p.ReturnURL = routes.WithTab(routes.PrivacyStatement, lang, kit.GetTabID(r.Context()))
	s.render(w, r, status, "error", p)
}

func withLang(lang routes.Lang) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(kit.WithLang(r.Context(), string(lang))))
		})
	}
}
