// Package kit carries request-scoped values through context.Context so that
// handlers, loggers and stores agree on who is calling and from where.
package kit

import "context"

type contextKey string

const (
	UserIDKey    contextKey = "kit_user_id"
	RoleKey      contextKey = "kit_role"
	TraceIDKey   contextKey = "kit_trace_id"
	SessionIDKey contextKey = "kit_session_id"
	TabIDKey     contextKey = "kit_tab_id"
	LangKey      contextKey = "kit_lang"
)

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserIDKey, id)
}
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

// WithRoles stores the caller's roles.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, RoleKey, roles)
}

// GetRoles returns the caller's roles, or nil.
func GetRoles(ctx context.Context) []string {
	v, _ := ctx.Value(RoleKey).([]string)
	return v
}

// HasRole reports whether the caller holds role.
func HasRole(ctx context.Context, role string) bool {
	for _, r := range GetRoles(ctx) {
		if r == role {
			return true
		}
	}
	return false
}

func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TraceIDKey, id)
}
func GetTraceID(ctx context.Context) string {
	v, _ := ctx.Value(TraceIDKey).(string)
	return v
}

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}
func GetSessionID(ctx context.Context) string {
	v, _ := ctx.Value(SessionIDKey).(string)
	return v
}

func WithTabID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TabIDKey, id)
}
func GetTabID(ctx context.Context) string {
	v, _ := ctx.Value(TabIDKey).(string)
	return v
}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LangKey, lang)
}

// GetLang returns the request language, "en" when unset.
func GetLang(ctx context.Context) string {
	if v, ok := ctx.Value(LangKey).(string); ok && v != "" {
		return v
	}
	return "en"
}
