package kit

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithUserID(ctx, "u1")
	ctx = WithTraceID(ctx, "abcd1234")
	ctx = WithSessionID(ctx, "s1")
	ctx = WithTabID(ctx, "tab-1")
	ctx = WithLang(ctx, "fr")

	if got := GetUserID(ctx); got != "u1" {
		t.Fatalf("user id: got %q", got)
	}
	if got := GetTraceID(ctx); got != "abcd1234" {
		t.Fatalf("trace id: got %q", got)
	}
	if got := GetSessionID(ctx); got != "s1" {
		t.Fatalf("session id: got %q", got)
	}
	if got := GetTabID(ctx); got != "tab-1" {
		t.Fatalf("tab id: got %q", got)
	}
	if got := GetLang(ctx); got != "fr" {
		t.Fatalf("lang: got %q", got)
	}
}

func TestGetLang_Default(t *testing.T) {
	if got := GetLang(context.Background()); got != "en" {
		t.Fatalf("default lang: got %q, want en", got)
	}
}

func TestHasRole(t *testing.T) {
	ctx := WithRoles(context.Background(), []string{"staff", "supervisor"})
	if !HasRole(ctx, "staff") {
		t.Fatal("expected staff role")
	}
	if HasRole(ctx, "admin") {
		t.Fatal("unexpected admin role")
	}
	if HasRole(context.Background(), "staff") {
		t.Fatal("empty context must not hold roles")
	}
}
