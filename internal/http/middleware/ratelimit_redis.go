package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"cups_webapp/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the
// limiters. If addr is empty or the ping fails, the limiters fall back to
// the in-process window.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limits", "addr", addr, "error", err)
		_ = client.Close()
		return
	}
	redisClient = client
	logger.Info("redis rate limiter connected", "addr", addr)
}

// RedisEnabled reports whether the limiters use Redis
func RedisEnabled() bool {
	return redisClient != nil
}

// PingRedis checks the shared client
func PingRedis(ctx context.Context) error {
	if redisClient == nil {
		return redis.ErrClosed
	}
	return redisClient.Ping(ctx).Err()
}

// CloseRedis releases the shared client
func CloseRedis() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// redisHit increments the fixed window counter stored at key
func redisHit(ctx context.Context, key string, window time.Duration) (int64, error) {
	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}
	return val, nil
}

// RedisRateLimit implements a fixed-window rate limiter per client IP using
// Redis INCR/EXPIRE, falling back to the in-process window without Redis.
// key format: rl:<window_seconds>:<ip>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := newWindowLimiter(window)

	return func(c *gin.Context) {
		ident := c.ClientIP()
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + ident

		var (
			val int64
			err error
		)
		if redisClient != nil {
			val, err = redisHit(c.Request.Context(), key, window)
			if err != nil {
				// fail open on redis errors
				c.Header("X-RateLimit-Error", "redis-error")
				c.Next()
				return
			}
		} else {
			val = fallback.hit(key, time.Now())
		}

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
