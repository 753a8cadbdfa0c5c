package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"github.com/gtracker/forum-backend/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	RequestsPerMinute int
	KeyPrefix         string
	Message           string
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 120,
		KeyPrefix:         "forum:ratelimit:",
		Message:           "Muitas requisições. Tente novamente em alguns instantes.",
	}
}

// rateLimitScript is an atomic sliding window over a sorted set
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local window_start = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, now .. ':' .. math.random(1000000))
    redis.call('EXPIRE', key, math.ceil(window / 1000) + 1)
    return {1, limit - count - 1, 0}
else
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local reset_at = 0
    if #oldest >= 2 then
        reset_at = tonumber(oldest[2]) + window
    end
    return {0, 0, reset_at}
end
`)

const rateWindow = time.Minute

// RateLimit limits requests per client IP. A nil client disables it.
func RateLimit(redisClient *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	return limiter(redisClient, cfg, "ip", func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitPerUser limits per authenticated user, falling back to the IP
func RateLimitPerUser(redisClient *redis.Client, requestsPerMinute int) gin.HandlerFunc {
	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerMinute = requestsPerMinute
	cfg.KeyPrefix += "user:"
	return limiter(redisClient, cfg, "user", func(c *gin.Context) string {
		if userID := GetUserID(c); userID != "" {
			return userID
		}
		return "ip:" + c.ClientIP()
	})
}

func limiter(redisClient *redis.Client, cfg RateLimitConfig, scope string, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		now := time.Now().UnixMilli()
		result, err := rateLimitScript.Run(c.Request.Context(), redisClient, []string{cfg.KeyPrefix + keyFn(c)},
			cfg.RequestsPerMinute, rateWindow.Milliseconds(), now,
		).Int64Slice()
		if err != nil {
			// fail open
			pkglogger.GetLogger().Warn().Err(err).Str("scope", scope).Msg("rate limit check failed")
			c.Next()
			return
		}

		allowed, remaining, resetAt := result[0] == 1, result[1], result[2]

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			retryAfter := (resetAt - now) / 1000
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt/1000))
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			metrics.RateLimited.WithLabelValues(scope).Inc()
			common.ErrorResponse(c, http.StatusTooManyRequests, cfg.Message, nil)
			return
		}

		c.Next()
	}
}
