// internal/api/middleware.go
package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lucentchat/lucent/internal/api/auth"
	"github.com/lucentchat/lucent/internal/ratelimit"
)

type Middleware func(http.Handler) http.Handler

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response wrapper to capture status code
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Str("request_id", r.Context().Value("request_id").(string)).
			Msg("Request completed")
	})
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				// Log the full stack trace
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		// Create a logger with the request ID
		logger := log.With().Str("request_id", requestID).Logger()

		// Add both the request ID and logger to context
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set default content type if not set
		if r.Header.Get("Accept") == "" {
			r.Header.Set("Accept", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

// WithAdminAuth gates a handler behind the bearer admin token. Failed
// attempts count toward a per-IP lockout; the limiter may be nil to
// disable brute-force tracking (tests).
func WithAdminAuth(tokenHash string, limiter *ratelimit.Limiter, trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.Ctx(r.Context())

			if tokenHash == "" {
				logger.Error().Msg("Admin token hash not configured")
				http.Error(w, "Admin endpoints disabled", http.StatusServiceUnavailable)
				return
			}

			ip := ratelimit.GetClientIP(r, trustProxy)
			if limiter != nil {
				if result := limiter.CheckAuth(ip); !result.Allowed {
					ratelimit.LogRateLimitExceeded("admin_auth", "", ip, result.Reason)
					w.Header().Set("Retry-After", result.RetryAfter.Round(time.Second).String())
					http.Error(w, "Too many attempts", http.StatusTooManyRequests)
					return
				}
			}

			token := auth.TokenFromRequest(r)
			if token == "" || !auth.VerifyToken(tokenHash, token) {
				if limiter != nil {
					if lockedOut := limiter.RecordAuthFailure(ip); lockedOut {
						logger.Warn().Str("ip", ip).Msg("Admin auth lockout triggered")
					}
				}
				logger.Warn().Str("ip", ip).Msg("Admin access denied: invalid token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if limiter != nil {
				limiter.ResetAuthAttempts(ip)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
