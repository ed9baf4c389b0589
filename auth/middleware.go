package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hazyhaar/sinapp/kit"
)

type claimsKey struct{}

// Middleware extracts a JWT from the token cookie or an Authorization Bearer
// header. Valid claims are put in the context along with the kit user id and
// roles. Invalid tokens clear the cookie; missing ones pass through.
// Use RequireRole to enforce.
func Middleware(secret []byte, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenStr string
			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				tokenStr = c.Value
			}
			if tokenStr == "" {
				if h, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
					tokenStr = h
				}
			}
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := ValidateToken(secret, tokenStr)
			if err != nil {
				ClearTokenCookie(w, secure)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims attaches claims to ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	ctx = context.WithValue(ctx, claimsKey{}, c)
	ctx = kit.WithUserID(ctx, c.UserID)
	return kit.WithRoles(ctx, c.Roles)
}

// GetClaims retrieves the Claims from the context, or nil if absent.
func GetClaims(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}

// RequireRole redirects anonymous requests to the login page returned by
// loginPath, remembering where they were going, and answers 403 when the
// user lacks role.
func RequireRole(role string, loginPath func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := GetClaims(r.Context())
			if c == nil {
				target := loginPath(r) + "?" + url.Values{"returnTo": {r.URL.RequestURI()}}.Encode()
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			if !c.HasRole(role) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
