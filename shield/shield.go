// Package shield provides the HTTP middleware applied in front of every
// route: security headers, body limits, request tracing, flash messages and
// login rate limiting.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.Stack(logger) {
//	    r.Use(mw)
//	}
package shield

import (
	"log/slog"
	"net/http"
)

type contextKey string

const (
	// LoggerKey is the context key for the per-request structured logger.
	LoggerKey contextKey = "shield_logger"

	// FlashKey is the context key for flash messages.
	FlashKey contextKey = "shield_flash"
)

// MaxFormBytes bounds a wizard form post.
const MaxFormBytes = 64 * 1024

// Stack returns the standard middleware chain, outermost first:
// HeadToGet, SecurityHeaders, MaxFormBody, Trace, Flash.
func Stack(logger *slog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxFormBody(MaxFormBytes),
		Trace(logger),
		Flash,
	}
}
