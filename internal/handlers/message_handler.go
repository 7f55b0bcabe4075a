package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/internal/policy"
	"github.com/studiohub/studiohub/internal/services"
	"github.com/studiohub/studiohub/internal/ws"
)

// MessageHandler exposes the chat use cases over REST. Every write that
// succeeds is also pushed over the socket layer, so REST-only clients and
// connected clients observe the same stream.
type MessageHandler struct {
	messages   *services.MessageService
	hub        *ws.Hub
	dispatcher services.Dispatcher
	log        *logger.Logger
}

func NewMessageHandler(messages *services.MessageService, hub *ws.Hub, dispatcher services.Dispatcher, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages:   messages,
		hub:        hub,
		dispatcher: dispatcher,
		log:        log,
	}
}

type updateMessageRequest struct {
	Body string `json:"message" binding:"required"`
}

func callerIdentity(c *gin.Context) (uint, policy.Role) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")
	id, _ := userID.(uint)
	roleStr, _ := role.(string)
	return id, policy.Role(roleStr)
}

// Create handles POST /api/v1/projects/:project_id/messages.
func (h *MessageHandler) Create(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("project_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid project id")
		return
	}

	var req services.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ProjectID = uint(projectID)

	userID, role := callerIdentity(c)
	message, err := h.messages.Create(userID, role, &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	// Broadcast only after the write committed.
	h.hub.EmitToProject(message.ProjectID, services.EventChatMessage, message)
	if h.dispatcher != nil {
		h.dispatcher.MessageCreated(message)
	}

	respondOK(c, message)
}

// List handles GET /api/v1/projects/:project_id/messages.
func (h *MessageHandler) List(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("project_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid project id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	userID, role := callerIdentity(c)
	pageData, err := h.messages.List(uint(projectID), userID, role, page, pageSize)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondOK(c, pageData)
}

// Update handles PUT /api/v1/messages/:message_id.
func (h *MessageHandler) Update(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid message id")
		return
	}

	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, _ := callerIdentity(c)
	message, err := h.messages.Update(messageID, req.Body, userID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.hub.EmitToProject(message.ProjectID, services.EventChatMessageUpdated, message)

	respondOK(c, message)
}

// Delete handles DELETE /api/v1/messages/:message_id.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid message id")
		return
	}

	userID, role := callerIdentity(c)
	projectID, err := h.messages.Delete(messageID, userID, role)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	h.hub.EmitToProject(projectID, services.EventChatMessageDeleted, ws.DeletedPayload{MessageID: messageID})

	respondOK(c, gin.H{"deleted": true})
}

// Recent handles GET /api/v1/messages/recent.
func (h *MessageHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	userID, role := callerIdentity(c)
	recent, err := h.messages.RecentForUser(userID, role, limit)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondOK(c, recent)
}

// Unread handles GET /api/v1/messages/unread.
func (h *MessageHandler) Unread(c *gin.Context) {
	sinceMinutes, _ := strconv.Atoi(c.DefaultQuery("since_minutes", "60"))

	userID, role := callerIdentity(c)
	summary, err := h.messages.UnreadSince(userID, role, sinceMinutes)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	respondOK(c, summary)
}

func (h *MessageHandler) respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrAccessDenied), errors.Is(err, services.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "unauthorized")
	default:
		h.log.Warn("message request failed", zap.Error(err))
		respondError(c, http.StatusBadRequest, err.Error())
	}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"code":    status,
		"message": message,
	})
}
