package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/metrics"
	"github.com/uniconnect/backend/internal/util"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 300, Window: time.Minute}
}

// AuthRateLimitConfig returns stricter limits for auth endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 10, Window: time.Minute}
}

// UploadRateLimitConfig returns limits for upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Limit: 20, Window: time.Minute}
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	config   RateLimitConfig
	rate     rate.Limit
	idleTTL  time.Duration
}

// NewRateLimiter creates a limiter allowing config.Limit requests per
// config.Window, with the whole limit available as burst
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		config:   config,
		rate:     rate.Every(config.Window / time.Duration(config.Limit)),
		idleTTL:  10 * time.Minute,
	}
}

// Allow checks if an IP is allowed to make a request
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.config.Limit)}
		rl.limiters[ip] = entry
		if len(rl.limiters)%1024 == 0 {
			rl.evictIdleLocked(now)
		}
	}
	entry.lastAccess = now
	return entry.limiter.AllowN(now, 1)
}

// evictIdleLocked drops limiters that have not been used recently
func (rl *RateLimiter) evictIdleLocked(now time.Time) {
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > rl.idleTTL {
			delete(rl.limiters, ip)
		}
	}
}

// Middleware returns the gin handler for this limiter
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int((rl.config.Window / time.Duration(rl.config.Limit)).Seconds()) + 1)
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			metrics.Get().ErrorsTotal.WithLabelValues("rate_limited", c.FullPath()).Inc()
			logger.Log.Debug("Rate limit exceeded", logger.WithIP(c.ClientIP()))
			c.Header("Retry-After", retryAfter)
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
			util.RespondWithAPIError(c, apperrors.RateLimited("Too many requests, please try again later"))
			return
		}
		c.Next()
	}
}

// RateLimit returns a middleware with default configuration
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig()).Middleware()
}

// RateLimitAuth returns a middleware for auth endpoints
func RateLimitAuth() gin.HandlerFunc {
	return NewRateLimiter(AuthRateLimitConfig()).Middleware()
}

// RateLimitUpload returns a middleware for upload endpoints
func RateLimitUpload() gin.HandlerFunc {
	return NewRateLimiter(UploadRateLimitConfig()).Middleware()
}
