package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func rateLimitKey(clientIP string, window time.Duration, now time.Time) string {
	bucket := now.UnixNano() / int64(window)
	return fmt.Sprintf("rate_limit:%s:%d", clientIP, bucket)
}

// RateLimiterMiddleware allows limit requests per client IP in each fixed
// window. When Redis is unavailable requests pass through.
func RateLimiterMiddleware(rdb redis.Cmdable, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()
		key := rateLimitKey(c.ClientIP(), window, now)

		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, window)
			return nil
		})
		if err != nil {
			log.Printf("[RATE] Redis error (rate limiter skipped): %v", err)
			c.Next()
			return
		}
		count := incr.Val()

		windowEnd := time.Unix(0, (now.UnixNano()/int64(window)+1)*int64(window))
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(limit)-count), 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(windowEnd.Unix(), 10))

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":     "error",
				"message":    "Too many requests. Slow down!",
				"retry_in_s": int(time.Until(windowEnd).Seconds()) + 1,
			})
			return
		}

		c.Next()
	}
}
