package shield

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "flash"

// FlashMessage is a one-time notice shown on the next page. Key is a message
// key resolved by the templates.
type FlashMessage struct {
	Kind string // "info" or "error"
	Key  string
}

// GetFlash retrieves the flash message from the request context.
func GetFlash(ctx context.Context) *FlashMessage {
	v, _ := ctx.Value(FlashKey).(*FlashMessage)
	return v
}

// Flash reads and clears the flash cookie, exposing it through GetFlash.
func Flash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(flashCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: flashCookie, MaxAge: -1, Path: "/"})

		raw, _ := url.QueryUnescape(cookie.Value)
		flash := &FlashMessage{Kind: "error", Key: raw}
		if kind, key, ok := strings.Cut(raw, ":"); ok && (kind == "info" || kind == "error") {
			flash.Kind, flash.Key = kind, key
		}

		ctx := context.WithValue(r.Context(), FlashKey, flash)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetFlash queues a message for the next request.
func SetFlash(w http.ResponseWriter, kind, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + ":" + key),
		Path:     "/",
		MaxAge:   10,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
