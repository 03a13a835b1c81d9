package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"roastme-backend/internal/services"

	"github.com/goccy/go-json"
)

// AdminCookieName is the cookie carrying the admin session token
const AdminCookieName = "admin_session"

// TokenValidator validates an admin session token
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// AdminSession attaches the admin principal to the request context when a
// valid session token is present. It never rejects; moderation services
// decide authorization from the context.
func AdminSession(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token != "" {
				if username, err := validator.ValidateToken(token); err == nil {
					r = r.WithContext(services.ContextWithAdmin(r.Context(), username))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionToken reads the admin cookie, falling back to a Bearer header
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(AdminCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// CronKey guards scheduled-job endpoints with a shared X-Cron-Key header.
// An empty key disables the endpoints.
func CronKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Cron-Key")
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FeatureChecker reports feature availability
type FeatureChecker interface {
	RequireFeature(ctx context.Context, key string) error
}

// RequireFeature answers 403 when the named feature toggle is off
func RequireFeature(features FeatureChecker, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := features.RequireFeature(r.Context(), key); err != nil {
				respondError(w, "feature disabled", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
