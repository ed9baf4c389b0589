package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/sinapp/dbopen"
	"github.com/hazyhaar/sinapp/kit"
)

var secret = []byte("0123456789abcdef0123456789abcdef")

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken(secret, &Claims{UserID: "u1", Name: "Ana", Roles: []string{RoleStaff}}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ValidateToken(secret, tok)
	if err != nil {
		t.Fatal(err)
	}
	if c.UserID != "u1" || !c.HasRole(RoleStaff) || c.HasRole(RoleAdmin) {
		t.Fatalf("claims = %+v", c)
	}
}

func TestGenerateToken_ShortSecret(t *testing.T) {
	if _, err := GenerateToken([]byte("short"), &Claims{}, time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	expired, _ := GenerateToken(secret, &Claims{UserID: "u1"}, -time.Minute)
	other, _ := GenerateToken([]byte("ffffffffffffffffffffffffffffffff"), &Claims{UserID: "u1"}, time.Hour)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{"expired": expired, "wrong key": other, "alg none": none, "garbage": "x.y.z"} {
		if _, err := ValidateToken(secret, tok); err == nil {
			t.Errorf("%s: token accepted", name)
		}
	}
}

func loginPath(*http.Request) string { return "/en/login" }

func guarded() http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(kit.GetUserID(r.Context())))
	})
	return Middleware(secret, false)(RequireRole(RoleStaff, loginPath)(ok))
}

func TestRequireRole_RedirectsAnonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	guarded().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/en/protected/person-case/review?tid=a", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/en/login?returnTo=") || !strings.Contains(loc, "review%3Ftid%3Da") {
		t.Fatalf("Location = %q", loc)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	tok, _ := GenerateToken(secret, &Claims{UserID: "u1", Roles: []string{"viewer"}}, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: tok})

	rec := httptest.NewRecorder()
	guarded().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireRole_BearerHeader(t *testing.T) {
	tok, _ := GenerateToken(secret, &Claims{UserID: "u9", Roles: []string{RoleStaff}}, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	rec := httptest.NewRecorder()
	guarded().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "u9" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestMiddleware_InvalidCookieCleared(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "bogus"})
	rec := httptest.NewRecorder()
	guarded().ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("invalid token cookie not cleared")
	}
}

func newUsers(t *testing.T) *Users {
	db := dbopen.OpenMemory(t, dbopen.WithMigrations(Migration))
	u := NewUsers(db)
	u.cost = bcrypt.MinCost
	return u
}

func TestUsers(t *testing.T) {
	u := newUsers(t)
	ctx := context.Background()

	created, err := u.Create(ctx, " Agent@Example.ca ", "Agent", "s3cret!", RoleStaff, RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	if created.Email != "agent@example.ca" {
		t.Fatalf("email not normalised: %q", created.Email)
	}

	c, err := u.Authenticate(ctx, "agent@example.ca", "s3cret!")
	if err != nil {
		t.Fatal(err)
	}
	if c.UserID != created.ID || !c.HasRole(RoleAdmin) {
		t.Fatalf("claims = %+v", c)
	}

	if _, err := u.Authenticate(ctx, "agent@example.ca", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("wrong password err = %v", err)
	}
	if _, err := u.Authenticate(ctx, "nobody@example.ca", "s3cret!"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	if _, err := u.Create(ctx, "agent@example.ca", "Dup", "x"); err == nil {
		t.Fatal("duplicate email accepted")
	}

	if err := u.Disable(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Authenticate(ctx, "agent@example.ca", "s3cret!"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("disabled user err = %v", err)
	}
}

func TestUsers_DefaultRole(t *testing.T) {
	u := newUsers(t)
	created, err := u.Create(context.Background(), "a@b.ca", "A", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if len(created.Roles) != 1 || created.Roles[0] != RoleStaff {
		t.Fatalf("roles = %v", created.Roles)
	}
}
