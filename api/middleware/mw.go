package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/kittygram/kittygram-api/internal/authn"
	"github.com/kittygram/kittygram-api/internal/metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string
type tokenKey string

const ClaimsKey contextKey = "claims"
const TokenKey tokenKey = "token"

// Claims returns the caller's claims, or false for anonymous requests.
func Claims(ctx context.Context) (authn.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(authn.Claims)
	return claims, ok
}

// JWTMiddleware parses an optional bearer token and adds its claims to the request context.
// Requests without an Authorization header continue anonymously; malformed or invalid tokens
// are rejected. With an empty signingKey the token signature is not checked.
func JWTMiddleware(signingKey string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				logger := zerolog.Ctx(r.Context()).With().
					Str("handler", "JWTMiddleware").Logger()

				// Get the Authorization header
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					next.ServeHTTP(w, r)
					return
				}

				// Check the Authorization header format
				token := strings.TrimPrefix(authHeader, "Bearer ")
				if token == authHeader || token == "" {
					logger.Warn().Msg("invalid token format")
					unauthorized(w, "invalid token format")
					return
				}

				// Parse the token for JWT claims
				var claims authn.Claims
				var err error
				if signingKey == "" {
					claims, err = authn.ParseClaims(token)
				} else {
					claims, err = authn.VerifyClaims(token, []byte(signingKey))
				}
				if err != nil {
					logger.Warn().Err(err).Msg("invalid bearer jwt token")
					unauthorized(w, "invalid bearer jwt token")
					return
				}

				// Add the token and claims to the context
				ctx := context.WithValue(r.Context(), TokenKey, token)
				ctx = context.WithValue(ctx, ClaimsKey, claims)

				// Tag the request logger with the caller
				l := zerolog.Ctx(ctx).With().Str("user", claims.Identity()).Logger()
				ctx = l.WithContext(ctx)

				next.ServeHTTP(w, r.WithContext(ctx))
			},
		)
	}
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"detail":"` + detail + `"}`))
}

// WithLogger adds a logger to the context and logs request information.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			logger := log.With().
				Str("request_id", requestID).
				Str("host", r.Host).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote_addr", r.RemoteAddr).
				Time("timestamp", time.Now()).
				Logger()

			// Add the logger to the context
			ctx := logger.WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}

// Metrics records the count, status and latency of every request.
func Metrics(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.IncrementInFlight()
			defer m.DecrementInFlight()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			// Use the route template so ids do not explode label cardinality
			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}

			m.RecordHTTPRequest(r.Method, path, strconv.Itoa(wrapped.statusCode), time.Since(start))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
