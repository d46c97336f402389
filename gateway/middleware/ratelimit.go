package middleware

import (
	"math"
	"net/http"
	"strconv"

	"aura/gateway/limiter"
)

// RateLimit enforces the per-agent window after authentication has attached
// a caller. Unauthenticated requests pass through untouched; the auth
// middleware already rejects them.
func RateLimit(l *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := CallerFromContext(r.Context())
			if caller == nil {
				next.ServeHTTP(w, r)
				return
			}
			decision := l.Allow(r.Context(), caller.DID)
			if !decision.Allowed {
				secs := int(math.Ceil(decision.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				WriteError(w, r, http.StatusTooManyRequests, ReasonRateLimited, "request budget exhausted for this window")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
