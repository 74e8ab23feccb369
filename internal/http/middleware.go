// Package http provides the operator API server, middleware and the
// dedicated metrics server.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CustomLoggerMiddleware logs HTTP requests with the request id attached.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("request_id", requestid.Get(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// ipLimiterStore holds per-client-IP rate limiters with periodic cleanup.
type ipLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rps      float64
	burst    int
}

type ipLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimitMiddleware enforces per-client-IP rate limiting using a token
// bucket (golang.org/x/time/rate). The API has no per-client credentials, so
// the client IP is the fairest available key.
//
// Returns 429 Too Many Requests with a Retry-After header when exceeded.
func RateLimitMiddleware(rps float64, burst int, logger *slog.Logger) gin.HandlerFunc {
	store := &ipLimiterStore{
		limiters: make(map[string]*ipLimiterEntry),
		rps:      rps,
		burst:    burst,
	}

	return func(c *gin.Context) {
		limiter := store.getLimiter(c.ClientIP())

		if !limiter.Allow() {
			reservation := limiter.Reserve()
			retryAfter := int(reservation.Delay().Seconds())
			reservation.Cancel()

			logger.Debug("rate limit exceeded",
				slog.String("client_ip", c.ClientIP()),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please retry after the specified delay.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getLimiter retrieves or creates a rate limiter for a client IP. Stale
// entries are dropped opportunistically to bound memory.
func (s *ipLimiterStore) getLimiter(clientIP string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if entry, ok := s.limiters[clientIP]; ok {
		entry.lastAccess = now
		return entry.limiter
	}

	if len(s.limiters) > 1000 {
		threshold := now.Add(-1 * time.Hour)
		for ip, entry := range s.limiters {
			if entry.lastAccess.Before(threshold) {
				delete(s.limiters, ip)
			}
		}
	}

	limiter := rate.NewLimiter(rate.Limit(s.rps), s.burst)
	s.limiters[clientIP] = &ipLimiterEntry{limiter: limiter, lastAccess: now}
	return limiter
}
