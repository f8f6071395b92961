// Package shield provides reusable HTTP middleware for the formgrid
// service: security headers, per-endpoint rate limiting, body limits,
// request IDs, and HEAD method handling.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
//	r.Use(shield.MaxBody(50 * 1024 * 1024))
//	r.Use(shield.RequestID)
//	r.Use(shield.NewRateLimiter(db).Middleware)
//
// Or apply the default stack in one call:
//
//	for _, mw := range shield.DefaultStack(db) {
//	    r.Use(mw)
//	}
package shield

import (
	"database/sql"
	"net/http"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// DefaultStack returns the standard middleware stack for the formgrid
// service. Middleware is ordered: HeadToGet → SecurityHeaders → MaxBody →
// RequestID → RateLimiter. The rate limiter reads its rules from the
// rate_limits table in db; call its StartReloader for periodic refresh.
func DefaultStack(db *sql.DB) ([]func(http.Handler) http.Handler, *RateLimiter) {
	rl := NewRateLimiter(db, "/health")
	return []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		MaxBody(50 * 1024 * 1024),
		RequestID,
		rl.Middleware,
	}, rl
}
