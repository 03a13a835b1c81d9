package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roastme-backend/internal/config"
	"roastme-backend/internal/handlers"
	"roastme-backend/internal/middleware"
	"roastme-backend/internal/services"

	"github.com/stretchr/testify/assert"
)

type disabledFeatures map[string]bool

func (d disabledFeatures) RequireFeature(_ context.Context, key string) error {
	if d[key] {
		return services.ErrFeatureDisabled
	}
	return nil
}

// testRouter wires the real middleware chain with services that have no
// storage behind them. Requests that reach a store would panic, so every
// case here must be answered by a gate first.
func testRouter(features disabledFeatures) http.Handler {
	cfg := &config.Config{
		Admin: config.AdminConfig{CronKey: "cron-secret"},
		CORS:  config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	admin := services.NewAdminService("admin", "", "secret", time.Hour)

	return newRouter(cfg, routerDeps{
		admin:            admin,
		settings:         features,
		limiter:          middleware.NewFingerprintRateLimiter(0.001, 1),
		analyticsLimiter: middleware.NewFingerprintRateLimiter(0.001, 2),
		roasts:           handlers.NewRoastHandler(nil),
		stories:          handlers.NewStoryHandler(nil),
		adminH:           handlers.NewAdminHandler(admin, services.NewModerationService(admin, nil, nil, nil), services.NewStatsService(nil, admin)),
		settingsH:        handlers.NewSettingsHandler(services.NewSettingsService(nil, admin)),
		uploads:          handlers.NewUploadHandler(nil),
		cron:             handlers.NewCronHandler(nil),
		analytics:        handlers.NewAnalyticsHandler(services.NewAnalyticsService(nil, admin)),
		websockets:       handlers.NewWebSocketHandler(services.NewEngagementHub()),
	})
}

func serve(h http.Handler, method, target string, header http.Header) int {
	req := httptest.NewRequest(method, target, strings.NewReader(`{}`))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouter_FeatureGates(t *testing.T) {
	r := testRouter(disabledFeatures{
		services.FeatureVoting:      true,
		services.FeatureStories:     true,
		services.FeatureLeaderboard: true,
	})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/roasts"},
		{http.MethodGet, "/api/v1/roasts/trending"},
		{http.MethodPost, "/api/v1/roasts/r1/vote"},
		{http.MethodGet, "/api/v1/stories"},
		{http.MethodPost, "/api/v1/stories/s1/view"},
		{http.MethodPost, "/api/v1/stories/s1/react"},
	} {
		assert.Equal(t, http.StatusForbidden, serve(r, tc.method, tc.path, nil), tc.path)
	}
}

func TestRouter_AdminRoutesRequireSession(t *testing.T) {
	r := testRouter(disabledFeatures{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/admin/content"},
		{http.MethodDelete, "/api/v1/admin/content/roast/r1"},
		{http.MethodGet, "/api/v1/admin/roasts/r1"},
		{http.MethodGet, "/api/v1/admin/stats"},
		{http.MethodGet, "/api/v1/admin/settings"},
		{http.MethodGet, "/api/v1/admin/analytics"},
	} {
		assert.Equal(t, http.StatusUnauthorized, serve(r, tc.method, tc.path, nil), tc.path)
	}

	forged := http.Header{"Authorization": {"Bearer not-a-token"}}
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/admin/stats", forged))
}

func TestRouter_CronKey(t *testing.T) {
	r := testRouter(disabledFeatures{})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/cron/cleanup", nil))
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/cron/cleanup",
		http.Header{"X-Cron-Key": {"wrong"}}))
}

func TestRouter_UploadsRateLimited(t *testing.T) {
	r := testRouter(disabledFeatures{})
	header := http.Header{"User-Agent": {"phone"}, "X-Forwarded-For": {"10.1.1.1"}}

	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/api/v1/uploads", header))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/api/v1/uploads", header))

	other := http.Header{"User-Agent": {"laptop"}, "X-Forwarded-For": {"10.2.2.2"}}
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/api/v1/uploads", other))
}

func TestRouter_AnalyticsHasItsOwnBucket(t *testing.T) {
	r := testRouter(disabledFeatures{})
	header := http.Header{"User-Agent": {"tablet"}, "X-Forwarded-For": {"10.3.3.3"}}

	// {} has no event name, so validation rejects it before the nil store
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/api/v1/uploads", header))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/api/v1/uploads", header))

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/v1/analytics", header))
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/v1/analytics", header))
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/api/v1/analytics", header))
}
