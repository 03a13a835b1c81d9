package middleware

import (
	"context"
	"net/http"

	"roastme-backend/internal/fingerprint"
)

type contextKey string

const fingerprintKey contextKey = "fingerprint"

// Fingerprint resolves the anonymous client fingerprint once per request
func Fingerprint(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := fingerprint.FromRequest(r)
		ctx := context.WithValue(r.Context(), fingerprintKey, fp)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetFingerprint extracts the fingerprint from context, resolving the
// "unknown" token when the middleware did not run
func GetFingerprint(ctx context.Context) string {
	fp, ok := ctx.Value(fingerprintKey).(string)
	if !ok || fp == "" {
		return fingerprint.Resolve("", "")
	}
	return fp
}
