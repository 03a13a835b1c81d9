package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// FingerprintRateLimiter keeps one token bucket per client fingerprint
type FingerprintRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

// NewFingerprintRateLimiter creates a limiter allowing rps requests per
// second with the given burst for each fingerprint
func NewFingerprintRateLimiter(rps float64, burst int) *FingerprintRateLimiter {
	return &FingerprintRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the fingerprint may proceed now
func (rl *FingerprintRateLimiter) Allow(fp string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, exists := rl.visitors[fp]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[fp] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Evict drops buckets idle for longer than maxIdle and returns how many
func (rl *FingerprintRateLimiter) Evict(maxIdle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-maxIdle)
	evicted := 0
	for fp, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, fp)
			evicted++
		}
	}
	return evicted
}

// Middleware rejects requests over the fingerprint's budget with 429
func (rl *FingerprintRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := GetFingerprint(r.Context())
		if !rl.Allow(fp) {
			log.Warn().Str("fingerprint", fp).Str("path", r.URL.Path).Msg("Rate limit exceeded")
			respondError(w, "too many requests, please wait", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
