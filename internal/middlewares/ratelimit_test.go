package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/utils/ratelimit"
)

func rateLimitTestRouter(limiter ratelimit.Limiter, perMinute int, userID uint) *gin.Engine {
	r := gin.New()
	identify := func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
	r.POST("/messages", identify, RateLimitMessages(limiter, perMinute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestRateLimitMessages(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := ratelimit.NewTokenBucketLimiter(client, &logger.Logger{Logger: zap.NewNop()}, false)
	r := rateLimitTestRouter(limiter, 3, 42)

	for i := range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages", nil))
		assert.Equal(t, http.StatusOK, w.Code, "send %d within the limit", i+1)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different user still sends freely.
	other := rateLimitTestRouter(limiter, 3, 43)
	w = httptest.NewRecorder()
	other.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMessages_DisabledWithoutLimiter(t *testing.T) {
	r := rateLimitTestRouter(nil, 3, 42)

	for range 10 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/messages", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
