// Package shield is the HTTP middleware stack of the copymd control API:
// security headers, request body limits, request IDs with a per-request
// logger, HEAD handling and panic recovery.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.DefaultStack(10 << 20) {
//	    r.Use(mw)
//	}
package shield

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request logger.
const LoggerKey contextKey = "shield_logger"

// DefaultStack returns the middleware applied to every control API route,
// outermost first: Recover, HeadToGet, SecurityHeaders, MaxBody, RequestID.
func DefaultStack(maxBody int64) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		Recover,
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(maxBody),
		RequestID,
	}
}

// GetLogger returns the per-request logger, or slog.Default().
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Recover answers 500 when a handler panics.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				GetLogger(r.Context()).Error("shield: handler panicked", "panic", rec)
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
