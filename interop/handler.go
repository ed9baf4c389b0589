// Package interop talks to the case-management API that receives completed
// applications.
//
// Calls go through a Handler chain: the transport at the bottom, wrapped by
// timeout, circuit breaker, recovery and logging middleware. Calls are never
// retried, since a duplicate POST could open two cases.
package interop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"
)

// Handler sends a request payload and returns the response payload.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// HandlerMiddleware wraps a Handler without changing its signature.
type HandlerMiddleware func(next Handler) Handler

// Chain composes middlewares; the first one is the outermost.
func Chain(mws ...HandlerMiddleware) HandlerMiddleware {
	return func(next Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs each call with its duration.
func Logging(logger *slog.Logger, op string) HandlerMiddleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			start := time.Now()
			resp, err := next(ctx, payload)
			attrs := []any{"op", op, "duration_ms", time.Since(start).Milliseconds(), "payload_bytes", len(payload)}
			if err != nil {
				logger.ErrorContext(ctx, "interop call failed", append(attrs, "error", err)...)
			} else {
				logger.InfoContext(ctx, "interop call ok", append(attrs, "response_bytes", len(resp))...)
			}
			return resp, err
		}
	}
}

// Timeout bounds each call.
func Timeout(d time.Duration) HandlerMiddleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, payload)
		}
	}
}

// Recovery turns a panic in the transport into an error.
func Recovery(logger *slog.Logger) HandlerMiddleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "interop handler panic", "panic", r, "stack", string(debug.Stack()))
					err = fmt.Errorf("interop: handler panic: %v", r)
				}
			}()
			return next(ctx, payload)
		}
	}
}
