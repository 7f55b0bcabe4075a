package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	jwtmw "github.com/studiohub/studiohub/middleware/jwt"
)

// AuthMiddleware verifies the bearer credential and binds the caller's
// identity to the request context. The token may arrive in the
// Authorization header or, for websocket handshakes, as a query parameter.
func AuthMiddleware(tokens *jwtmw.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credential"})
			c.Abort()
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired credential"})
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired credential"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_name", claims.Name)
		c.Set("role", claims.Role)

		c.Next()
	}
}
