package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roastme-backend/internal/fingerprint"
	"roastme-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator map[string]string

func (s stubValidator) ValidateToken(token string) (string, error) {
	if name, ok := s[token]; ok {
		return name, nil
	}
	return "", errors.New("invalid token")
}

func adminEcho(t *testing.T, want string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := services.AdminFromContext(r.Context())
		if want == "" {
			assert.False(t, ok)
		} else {
			assert.True(t, ok)
			assert.Equal(t, want, got)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAdminSession(t *testing.T) {
	validator := stubValidator{"good": "admin"}

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AdminCookieName, Value: "good"}) }, "admin"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, "admin"},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, ""},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "good") }, ""},
		{"anonymous", func(r *http.Request) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			AdminSession(validator)(adminEcho(t, tt.want)).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusNoContent, rec.Code)
		})
	}
}

func TestCronKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		configured string
		header     string
		want       int
	}{
		{"match", "s3cret", "s3cret", http.StatusOK},
		{"mismatch", "s3cret", "guess", http.StatusUnauthorized},
		{"missing", "s3cret", "", http.StatusUnauthorized},
		{"unconfigured", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/cleanup", nil)
			if tt.header != "" {
				req.Header.Set("X-Cron-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			CronKey(tt.configured)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

type stubFeatures map[string]bool

func (s stubFeatures) RequireFeature(_ context.Context, key string) error {
	if enabled, ok := s[key]; ok && !enabled {
		return services.ErrFeatureDisabled
	}
	return nil
}

func TestRequireFeature(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	features := stubFeatures{services.FeatureVoting: false}

	rec := httptest.NewRecorder()
	RequireFeature(features, services.FeatureVoting)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"feature disabled"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	RequireFeature(features, services.FeatureStories)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFingerprint(t *testing.T) {
	var got string
	handler := Fingerprint(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetFingerprint(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, fingerprint.Resolve("Mozilla/5.0", "1.2.3.4"), got)
	assert.Equal(t, fingerprint.Resolve("", ""), GetFingerprint(context.Background()))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewFingerprintRateLimiter(1, 2)
	clock := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	assert.True(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))
	assert.True(t, limiter.Allow("b"), "buckets are per fingerprint")

	clock = clock.Add(time.Second)
	assert.True(t, limiter.Allow("a"))

	clock = clock.Add(time.Hour)
	assert.True(t, limiter.Allow("b"))
	assert.Equal(t, 1, limiter.Evict(30*time.Minute))
}

func TestRateLimiterMiddleware(t *testing.T) {
	limiter := NewFingerprintRateLimiter(0.001, 1)
	handler := Fingerprint(limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/roasts", nil)
		req.Header.Set("X-Forwarded-For", "9.9.9.9")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Len(t, codes, 2)
	assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests}, codes)
}
