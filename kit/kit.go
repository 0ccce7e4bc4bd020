// Package kit holds the transport-agnostic endpoint shape shared by the
// HTTP control API and the MCP tools, plus the request context values
// they carry.
package kit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Endpoint is one operation, independent of how it was invoked.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares; the first one is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging logs each call with its transport, request ID and duration.
func Logging(logger *slog.Logger, name string) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{
				"endpoint", name,
				"transport", GetTransport(ctx),
				"duration", time.Since(start),
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if err != nil {
				logger.Warn("kit: endpoint failed", append(attrs, "error", err)...)
			} else {
				logger.Debug("kit: endpoint done", attrs...)
			}
			return resp, err
		}
	}
}

// Recover turns a panic in the endpoint into an error.
func Recover() Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, req any) (resp any, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp, err = nil, fmt.Errorf("kit: panic: %v", r)
				}
			}()
			return next(ctx, req)
		}
	}
}
