package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"course_market_backend/logger"
)

// RateLimiter is a fixed-window counter kept in Redis.
type RateLimiter struct {
	redisClient *redis.Client
	log         *logger.Logger
}

func NewRateLimiter(client *redis.Client, log *logger.Logger) *RateLimiter {
	return &RateLimiter{redisClient: client, log: log}
}

// Limit allows limit requests per window for each caller. Callers are keyed
// by user id when authenticated and by client IP otherwise. Redis errors let
// the request through.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.ClientIP()
		if userID, ok := UserID(c); ok {
			caller = userID.String()
		}
		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, caller)

		pipe := rl.redisClient.TxPipeline()
		incr := pipe.Incr(c, key)
		ttlCmd := pipe.TTL(c, key)
		if _, err := pipe.Exec(c); err != nil {
			rl.log.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		count, ttl := incr.Val(), ttlCmd.Val()

		// a counter without an expiry (first hit, or an earlier EXPIRE that
		// never landed) gets the window now
		if ttl < 0 {
			if err := rl.redisClient.Expire(c, key, window).Err(); err != nil {
				rl.log.Warn("rate limiter expire failed", "key", key, "error", err)
			}
			ttl = window
		}

		if count > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", ttl.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": fmt.Sprintf("%.0f seconds", ttl.Seconds()),
			})
			return
		}
		c.Next()
	}
}
