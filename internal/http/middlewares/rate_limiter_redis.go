package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter shares a fixed window across replicas via INCR + EXPIRE.
// Redis being down fails open: blocking every login because the limiter store
// is unreachable would be a worse outage than a brute-force window.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:    rdb,
		limit:  limit,
		window: window,
	}
}

func (rl *RedisRateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		key = "ratelimit:" + key

		ctx := c.Request.Context()

		n, err := rl.rdb.Incr(ctx, key).Result()

		if err != nil {
			c.Next()
			return
		}

		if n == 1 {
			// first hit in this window owns the expiry
			_ = rl.rdb.Expire(ctx, key, rl.window).Err()
		}

		if n > int64(rl.limit) {
			ttl, ttlErr := rl.rdb.TTL(ctx, key).Result()

			retryAfter := int(rl.window.Seconds())

			if ttlErr == nil && ttl > 0 {
				retryAfter = int(ttl.Seconds())
			}

			abortRateLimited(c, retryAfter)
			return
		}

		c.Next()
	}
}
