package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyMiddleware gates the automation endpoints with a static shared
// secret in the x-api-key header. Independent of the bearer scheme and
// deliberately not rate limited: the reminder bot polls on a fixed
// schedule.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "automation API disabled"})
			c.Abort()
			return
		}

		supplied := c.GetHeader("x-api-key")
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
