package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/hazyhaar/sinapp/idgen"
	"github.com/hazyhaar/sinapp/kit"
)

// Options configures a Manager.
type Options struct {
	CookieName string
	TTL        time.Duration // idle timeout, slid forward by every request
	Secure     bool
	NewID      idgen.Generator
}

// Manager loads the session for each request and commits it before the
// response is written.
type Manager struct {
	store  Store
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

var validID = regexp.MustCompile(`^[0-9A-Za-z]{16,64}$`)

// NewManager creates a Manager. Zero option fields get defaults.
func NewManager(store Store, opts Options, logger *slog.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "sinapp_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 8 * time.Hour
	}
	if opts.NewID == nil {
		opts.NewID = idgen.SessionID
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, opts: opts, logger: logger, now: time.Now}
}

type ctxKey struct{}

// FromContext returns the request's session, or nil outside Middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Middleware attaches a Session to the request context. Pending changes are
// flushed to the store before the status line is written; if the flush fails
// the client gets a 500 and the handler's output is discarded.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.load(r)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "session load", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}

		cw := &commitWriter{ResponseWriter: w, logger: m.logger}
		cw.commit = func() error { return m.commit(r.Context(), cw.ResponseWriter, sess) }

		ctx := kit.WithSessionID(WithSession(r.Context(), sess), sess.ID())
		next.ServeHTTP(cw, r.WithContext(ctx))

		if !cw.committed {
			cw.flush()
		}
	})
}

func (m *Manager) load(r *http.Request) (*Session, error) {
	if c, err := r.Cookie(m.opts.CookieName); err == nil && validID.MatchString(c.Value) {
		values, err := m.store.Get(r.Context(), c.Value)
		switch {
		case err == nil:
			return newSession(c.Value, values, false), nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}
	// Unknown ids are never adopted.
	return newSession(m.opts.NewID(), nil, true), nil
}

func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	set, del, destroyed := s.pending()
	if destroyed {
		if !s.IsNew() {
			if err := m.store.Delete(ctx, s.ID()); err != nil {
				return err
			}
		}
		http.SetCookie(w, m.cookie("", -1))
		return nil
	}
	old, rotated := s.rotate(m.opts.NewID)
	if old != "" {
		if err := m.store.Delete(ctx, old); err != nil {
			return err
		}
	}
	if len(set) == 0 && len(del) == 0 && s.IsNew() {
		if rotated {
			http.SetCookie(w, m.cookie("", -1))
		}
		return nil
	}

	// An existing session is written back even when unchanged so that the
	// expiry slides with every request, reads included.
	expires := m.now().Add(m.opts.TTL)
	if err := m.store.Set(ctx, s.ID(), set, del, expires); err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(s.ID(), int(m.opts.TTL.Seconds())))
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// commitWriter runs commit once, before the first byte of the response.
type commitWriter struct {
	http.ResponseWriter
	logger    *slog.Logger
	commit    func() error
	committed bool
	failed    bool
}

func (w *commitWriter) flush() {
	w.committed = true
	if err := w.commit(); err != nil {
		w.failed = true
		w.logger.Error("session commit", "error", err)
		http.Error(w.ResponseWriter, "session unavailable", http.StatusInternalServerError)
	}
}

func (w *commitWriter) WriteHeader(code int) {
	if !w.committed {
		w.flush()
	}
	if w.failed {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	if w.failed {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
