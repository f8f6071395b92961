package shield

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/formgrid/formgrid/kit"
)

// RequestID generates a random ID for each request and injects it into the
// context, the response headers, and a per-request structured logger. The
// ID is stored under kit.RequestIDKey and the logger under LoggerKey; the
// logger attrs are read back through the kit getters so every downstream
// log line carries the same transport and client IP the handlers see.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := make([]byte, 4)
		rand.Read(id)
		requestID := hex.EncodeToString(id)

		ctx := kit.WithRequestID(r.Context(), requestID)
		ctx = kit.WithRemoteAddr(ctx, ExtractIP(r))
		ctx = kit.WithTransport(ctx, "http")
		w.Header().Set("X-Request-ID", requestID)

		logger := slog.Default().With(
			"request_id", requestID,
			"transport", kit.GetTransport(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", kit.GetRemoteAddr(ctx),
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
