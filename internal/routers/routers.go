package routers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	jwtmw "github.com/studiohub/studiohub/middleware/jwt"

	"github.com/studiohub/studiohub/config"
	"github.com/studiohub/studiohub/internal/handlers"
	"github.com/studiohub/studiohub/internal/middlewares"
	"github.com/studiohub/studiohub/internal/services"
	"github.com/studiohub/studiohub/internal/ws"
	"github.com/studiohub/studiohub/utils/ratelimit"

	logger "github.com/studiohub/studiohub/middleware/log"
)

// SetupRoutes wires every route. The websocket route registers before the
// async middleware so the upgrade handshake never queues behind the worker
// pool.
func SetupRoutes(r *gin.Engine, cfg *config.Config,
	tokens *jwtmw.TokenManager,
	messageHandler *handlers.MessageHandler,
	automationHandler *handlers.AutomationHandler,
	hub *ws.Hub,
	messageService *services.MessageService,
	dispatcher services.Dispatcher,
	limiter ratelimit.Limiter,
	log *logger.Logger,
) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "x-api-key"}
	r.Use(cors.New(corsConfig))

	auth := middlewares.AuthMiddleware(tokens)

	r.GET("/ws", auth, func(c *gin.Context) {
		ws.ServeWs(hub, messageService, dispatcher, log, c)
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Use(middlewares.AsyncMiddleware())

	registerChatRoutes(r, cfg, auth, messageHandler, limiter)
	registerAutomationRoutes(r, cfg, automationHandler)
}

func registerChatRoutes(r *gin.Engine, cfg *config.Config, auth gin.HandlerFunc, h *handlers.MessageHandler, limiter ratelimit.Limiter) {
	api := r.Group("/api/v1")
	api.Use(auth)
	{
		sendLimit := middlewares.RateLimitMessages(limiter, cfg.RateLimit.MessagesPerMinute)

		api.POST("/projects/:project_id/messages", sendLimit, h.Create)
		api.GET("/projects/:project_id/messages", h.List)

		api.PUT("/messages/:message_id", h.Update)
		api.DELETE("/messages/:message_id", h.Delete)

		api.GET("/messages/recent", h.Recent)
		api.GET("/messages/unread", h.Unread)
	}
}

func registerAutomationRoutes(r *gin.Engine, cfg *config.Config, h *handlers.AutomationHandler) {
	automation := r.Group("/api/v1/automation")
	automation.Use(middlewares.APIKeyMiddleware(cfg.Automation.APIKey))
	{
		automation.GET("/unread-users", h.UnreadUsers)
		automation.POST("/reminders", h.Remind)
	}
}
