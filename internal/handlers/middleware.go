package handlers

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
	"insightpaper/internal/security"
	"insightpaper/internal/validation"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	PrincipalContextKey ContextKey = "principal"
	RequestIDContextKey ContextKey = "request_id"
)

const requestIDHeader = "X-Request-Id"

// publicRoutes bypass the auth cookie check.
var publicRoutes = map[string]bool{
	"POST /api/users/login":                     true,
	"POST /api/users/send-otp":                  true,
	"POST /api/users/verify-otp":                true,
	"POST /api/users/forgot-password":           true,
	"POST /api/users/confirm-password-recovery": true,
	"POST /api/users/refresh-token":             true,
	"POST /api/users/create-account":            true,
	"POST /api/users/logout":                    true,
	"GET /api/status":                           true,
	"GET /status":                               true,
}

func isPublicRoute(r *http.Request) bool {
	path := r.URL.Path
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return publicRoutes[r.Method+" "+path]
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens  *security.Tokens
	limiter *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.Tokens, limiter *security.RateLimiter) *Middleware {
	return &Middleware{tokens: tokens, limiter: limiter}
}

// Authenticate verifies the auth cookie on every route outside the
// allow-list and stores the caller's Principal in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicRoute(r) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(security.AuthCookieName)
		if err != nil || cookie.Value == "" {
			respondWithError(w, "", apperr.ErrUnauthorized)
			return
		}
		claims, err := m.tokens.VerifyAuthToken(cookie.Value)
		if err != nil {
			respondWithError(w, "", apperr.ErrUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers holding none of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if p == nil {
				respondWithError(w, "", apperr.ErrUnauthorized)
				return
			}
			if !p.HasRole(roles...) {
				respondWithError(w, "", apperr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies the login limiter by client IP
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow(security.GetClientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too_many_requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SanitizeQuery trims query values and strips control characters and angle
// brackets before any handler reads them.
func SanitizeQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			q := r.URL.Query()
			for key, values := range q {
				for i, v := range values {
					values[i] = validation.SanitizeQueryValue(v)
				}
				q[key] = values
			}
			r.URL.RawQuery = q.Encode()
		}
		next.ServeHTTP(w, r)
	})
}

// RequestID tags each request with an id, reusing the caller's when present.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recover turns a handler panic into a 500.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Printf("Panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": apperr.CodeUnexpected})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		id, _ := r.Context().Value(RequestIDContextKey).(string)
		log.Printf("%s %s %d %s [%s]", r.Method, r.URL.Path, rec.status, time.Since(start), id)
	})
}

// GetPrincipal retrieves the authenticated caller from the request context
func GetPrincipal(ctx context.Context) *models.Principal {
	p, ok := ctx.Value(PrincipalContextKey).(*models.Principal)
	if !ok {
		return nil
	}
	return p
}
