// Package middleware provides HTTP middleware for the integrator server.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Key type for context values
type contextKey string

// Context keys
const (
	SubjectKey contextKey = "subject"
)

// TokenValidator validates bearer tokens and returns their subject
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// AuthMiddleware provides authentication middleware for HTTP handlers
type AuthMiddleware struct {
	validator   TokenValidator
	rateLimiter *RateLimiter
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		validator:   validator,
		rateLimiter: NewRateLimiter(100, time.Minute), // 100 failures per minute
	}
}

// Authenticate is middleware that authenticates requests
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication for OPTIONS requests (CORS preflight)
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		clientIP := clientAddr(r)
		if m.rateLimiter.IsLimited(clientIP) {
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		subject, err := m.validator.ValidateToken(token)
		if err != nil {
			m.rateLimiter.Record(clientIP)
			http.Error(w, "Authentication failed", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads the token from the Authorization header. Browsers cannot
// set headers on EventSource and WebSocket requests, so the access_token
// query parameter is accepted as well.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("access_token")
}

func clientAddr(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		return addr[:i]
	}
	return addr
}

// GetSubject retrieves the authenticated subject from the request context
func GetSubject(r *http.Request) (string, bool) {
	subject, ok := r.Context().Value(SubjectKey).(string)
	return subject, ok
}

// RateLimiter counts failed attempts per client inside a sliding window
type RateLimiter struct {
	mu       sync.Mutex
	failures map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter allows limit failures per client within window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		failures: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// IsLimited reports whether client has used up its failures
func (r *RateLimiter) IsLimited(client string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.recent(client)) >= r.limit
}

// Record counts a failed attempt by client
func (r *RateLimiter) Record(client string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.failures[client] = append(r.recent(client), r.now())
}

// recent drops the failures of client that left the window and returns the
// rest. Clients with none left are forgotten.
func (r *RateLimiter) recent(client string) []time.Time {
	cutoff := r.now().Add(-r.window)
	kept := r.failures[client][:0]
	for _, t := range r.failures[client] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(r.failures, client)
		return nil
	}
	r.failures[client] = kept
	return kept
}
