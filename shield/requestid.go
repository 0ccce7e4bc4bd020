package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/copymd/idgen"
	"github.com/hazyhaar/copymd/kit"
)

var newRequestID = idgen.Prefixed("req_", idgen.NanoID(12))

// RequestID tags each request with an ID (the caller's X-Request-ID when
// present), echoes it in the response, and stores it with a per-request
// logger in the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = newRequestID()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := kit.WithTransport(kit.WithRequestID(r.Context(), id), "http")
		logger := slog.Default().With(
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Debug("shield: request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
