package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// limiterRetryAfter is advertised to clients turned away by RateLimiter.
const limiterRetryAfter = time.Second

// RateLimiter rejects requests with 429 while maxConcurrent are in flight.
// A non-positive limit disables limiting.
func RateLimiter(maxConcurrent int, log *zap.Logger) func(next http.Handler) http.Handler {
	if maxConcurrent <= 0 {
		log.Warn("concurrency limit disabled", zap.Int("max_concurrent", maxConcurrent))
		return func(next http.Handler) http.Handler { return next }
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	retryAfter := strconv.Itoa(int(limiterRetryAfter / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sem.TryAcquire(1) {
				log.Debug("rejecting request over concurrency limit",
					zap.String("path", r.URL.Path),
					zap.Int("max_concurrent", maxConcurrent),
				)
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			defer sem.Release(1)

			next.ServeHTTP(w, r)
		})
	}
}
