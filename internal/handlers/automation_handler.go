package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/internal/services"
	"github.com/studiohub/studiohub/internal/ws"
)

// AutomationHandler serves the reminder bot. Authenticated by api key, not
// by a user session, so nothing here reads the caller identity keys.
type AutomationHandler struct {
	messages *services.MessageService
	hub      *ws.Hub
	log      *logger.Logger
}

func NewAutomationHandler(messages *services.MessageService, hub *ws.Hub, log *logger.Logger) *AutomationHandler {
	return &AutomationHandler{
		messages: messages,
		hub:      hub,
		log:      log,
	}
}

type reminderRequest struct {
	UserID  uint   `json:"userId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// UnreadUsers handles GET /api/v1/automation/unread-users: every active
// user with unread messages in the window, with their previews.
func (h *AutomationHandler) UnreadUsers(c *gin.Context) {
	sinceMinutes, _ := strconv.Atoi(c.DefaultQuery("since_minutes", "60"))

	users, err := h.messages.UsersWithUnread(sinceMinutes)
	if err != nil {
		h.log.Warn("unread users scan failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "scan failed")
		return
	}
	if users == nil {
		users = []services.UnreadUser{}
	}

	respondOK(c, users)
}

// Remind handles POST /api/v1/automation/reminders: pushes a reminder to
// every open connection of the target user. Best-effort; a user with no
// open connection gets nothing and the call still succeeds.
func (h *AutomationHandler) Remind(c *gin.Context) {
	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	h.hub.EmitToUser(req.UserID, services.EventChatReminder, gin.H{
		"message": req.Message,
	})

	respondOK(c, gin.H{"delivered": true})
}
