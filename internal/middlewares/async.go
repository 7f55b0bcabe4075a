package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/studiohub/studiohub/internal/utils"
)

// AsyncMiddleware runs the handler chain on the worker pool instead of the
// goroutine gin spawned for the request. The pool bounds concurrent
// handler execution; a full queue makes requests wait rather than fail.
// The submitting goroutine blocks until the worker finishes, so only one
// goroutine touches the gin.Context at a time.
func AsyncMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.GlobalWorkerPool == nil {
			c.Next()
			return
		}

		done := make(chan struct{})

		task := func() {
			defer close(done)
			c.Next()
		}

		utils.GlobalWorkerPool.Submit(task)
		<-done
	}
}
