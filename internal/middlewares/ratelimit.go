package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studiohub/studiohub/utils/ratelimit"
)

// RateLimitMessages caps message sends per user per minute. Keyed by the
// authenticated user, so it must run after AuthMiddleware.
func RateLimitMessages(limiter ratelimit.Limiter, perMinute int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || perMinute <= 0 {
			c.Next()
			return
		}

		userID := c.GetUint("user_id")
		key := "messages:user:" + strconv.FormatUint(uint64(userID), 10)

		allowed, err := limiter.Allow(c.Request.Context(), key, perMinute, time.Minute)
		if err != nil || !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many messages, slow down"})
			c.Abort()
			return
		}

		c.Next()
	}
}
