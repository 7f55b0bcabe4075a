package ws

import (
	"encoding/json"

	"github.com/studiohub/studiohub/internal/services"
)

// InboundEvent is the envelope clients send: an event name plus a payload
// decoded per event.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Event is the envelope the server sends.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// JoinProjectRequest asks to join a project room. There is no access check
// at join time; reads and writes are gated per-operation by the message
// service.
type JoinProjectRequest struct {
	ProjectID uint `json:"projectId"`
}

// JoinUserRequest asks to join a personal channel. Only the caller's own.
type JoinUserRequest struct {
	UserID uint `json:"userId"`
}

// TypingRequest is the ephemeral typing signal. Never persisted.
type TypingRequest struct {
	ProjectID uint `json:"projectId"`
	IsTyping  bool `json:"isTyping"`
}

// Ack is the reply payload for inbound events. Errors go to the caller
// only, never into a room.
type Ack struct {
	Success bool                 `json:"success,omitempty"`
	Room    string               `json:"room,omitempty"`
	Error   string               `json:"error,omitempty"`
	Message *services.MessageDTO `json:"message,omitempty"`
}

// TypingPayload is the typing broadcast to the rest of the room.
type TypingPayload struct {
	UserID   uint   `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// DeletedPayload announces a removal to the project room.
type DeletedPayload struct {
	MessageID int64 `json:"messageId"`
}
