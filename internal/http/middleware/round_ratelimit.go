package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RoundRateLimit limits round and auto-play starts per game session (not per
// IP). Requires JWT to run before it.
func RoundRateLimit(maxRounds int, window time.Duration) gin.HandlerFunc {
	fallback := newWindowLimiter(window)

	return func(c *gin.Context) {
		sessionKey, ok := GetSessionKey(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		key := "round_rl:" + sessionKey + ":" + strconv.FormatInt(int64(window.Seconds()), 10)

		var val int64
		if redisClient != nil {
			var err error
			val, err = redisHit(c.Request.Context(), key, window)
			if err != nil {
				c.Header("X-RoundRateLimit-Error", "redis-error")
				c.Next()
				return
			}
		} else {
			val = fallback.hit(key, time.Now())
		}

		c.Header("X-RoundRateLimit-Limit", strconv.Itoa(maxRounds))
		c.Header("X-RoundRateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRounds)-val), 10))

		if val > int64(maxRounds) {
			RLBlocked.WithLabelValues("round:" + c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "round rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues("round:" + c.FullPath()).Inc()
		c.Next()
	}
}
