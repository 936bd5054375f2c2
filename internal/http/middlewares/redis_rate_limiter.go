package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is the shared-state variant of RateLimiter for multi
// replica deployments. It fails open: if redis is unreachable the request
// goes through rather than turning a cache outage into an API outage.
type RedisRateLimiter struct {
	client *redis.Client
	window time.Duration
	limit  int
}

func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RedisRateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		key = "ratelimit:" + key

		ctx := c.Request.Context()

		count, err := rl.client.Incr(ctx, key).Result()

		if err != nil {
			c.Next()
			return
		}

		if count == 1 {
			// first hit in the window starts the clock
			rl.client.Expire(ctx, key, rl.window)
		}

		if count > int64(rl.limit) {
			ttl, err := rl.client.TTL(ctx, key).Result()

			retryAfter := int(rl.window.Seconds())

			if err == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds())
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}
