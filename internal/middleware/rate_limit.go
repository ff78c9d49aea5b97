package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jsukup/ratemybeard/internal/metrics"
	"github.com/jsukup/ratemybeard/internal/ratelimit"
)

// RateLimitAnalyze throttles the analyze endpoint per client IP. The service
// has no authentication, so the remote address is the only stable subject.
func RateLimitAnalyze(lim ratelimit.Limiter, bucket ratelimit.Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		dec, err := lim.Allow(c.Request.Context(), "analyze", c.ClientIP(), bucket)
		if err != nil {
			// Fail open to avoid turning redis hiccups into outages.
			slog.Default().Warn("rate limit check failed", "op", "analyze", "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		metrics.RateLimitHitsTotal.WithLabelValues("analyze", "analyze").Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":           false,
			"error":             "rate limit exceeded",
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}
