package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"

	"github.com/studiohub/studiohub/internal/policy"
	"github.com/studiohub/studiohub/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one authenticated websocket connection. Identity comes from
// the verified bearer token; room membership lives on the hub and is lost
// on disconnect, so reconnecting clients must rejoin their rooms.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan *Event
	connID     string
	userID     uint
	name       string
	role       policy.Role
	rooms      map[string]bool
	messages   *services.MessageService
	dispatcher services.Dispatcher
	log        *logger.Logger

	sendMu sync.Mutex
	closed bool
}

// enqueue offers an event to the write pump without blocking. Returns
// false when the buffer is full or the connection already closed. The
// mutex pairs with closeSend: fanout goroutines holding a stale registry
// snapshot may race the hub dropping the client, and a send must never
// hit a closed channel.
func (c *Client) enqueue(evt *Event) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// reply sends an event back to this connection only.
func (c *Client) reply(event string, ack Ack) {
	c.enqueue(&Event{Event: event, Data: ack})
}

// readPump decodes inbound events and dispatches them until the transport
// closes.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.hub.registry.Touch(c.userID)
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", zap.Uint("user_id", c.userID), zap.Error(err))
			}
			break
		}

		var evt InboundEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			c.log.Warn("malformed inbound event", zap.Uint("user_id", c.userID), zap.Error(err))
			continue
		}
		c.dispatch(&evt)
	}
}

func (c *Client) dispatch(evt *InboundEvent) {
	switch evt.Event {
	case services.EventJoinProject:
		var req JoinProjectRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			c.reply(evt.Event, Ack{Error: "invalid payload"})
			return
		}
		room := c.hub.JoinProject(c, req.ProjectID)
		c.reply(evt.Event, Ack{Success: true, Room: room})

	case services.EventJoinUser:
		var req JoinUserRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil || req.UserID != c.userID {
			c.reply(evt.Event, Ack{Error: "cannot join another user's channel"})
			return
		}
		// Personal channels route through the registry, which already
		// tracks this connection; the join is acknowledged, not recorded.
		c.reply(evt.Event, Ack{Success: true, Room: UserRoom(c.userID)})

	case services.EventLeaveProject:
		var req JoinProjectRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			c.reply(evt.Event, Ack{Error: "invalid payload"})
			return
		}
		c.hub.LeaveProject(c, req.ProjectID)
		c.reply(evt.Event, Ack{Success: true})

	case services.EventChatMessage:
		c.handleChatMessage(evt)

	case services.EventChatTyping:
		var req TypingRequest
		if err := json.Unmarshal(evt.Data, &req); err != nil {
			return
		}
		// Fire and forget; typing state is never persisted and never
		// echoed back to the typist.
		c.hub.EmitToProjectExcept(req.ProjectID, c, services.EventChatTyping, TypingPayload{
			UserID:   c.userID,
			UserName: c.name,
			IsTyping: req.IsTyping,
		})

	default:
		c.reply(evt.Event, Ack{Error: "unknown event"})
	}
}

func (c *Client) handleChatMessage(evt *InboundEvent) {
	var req services.CreateMessageRequest
	if err := json.Unmarshal(evt.Data, &req); err != nil {
		c.reply(evt.Event, Ack{Error: "invalid payload"})
		return
	}

	message, err := c.messages.Create(c.userID, c.role, &req)
	if err != nil {
		// The error goes to this caller only. Nothing reaches the room
		// unless persistence succeeded.
		c.reply(evt.Event, Ack{Error: err.Error()})
		return
	}

	c.reply(evt.Event, Ack{Success: true, Message: &message})
	c.hub.EmitToProject(message.ProjectID, services.EventChatMessage, message)
	c.dispatcher.MessageCreated(message)
}

// writePump flushes queued events and keeps the connection alive with
// pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			json.NewEncoder(w).Encode(evt)

			// Drain whatever else queued up while we held the writer.
			n := len(c.send)
			for range n {
				json.NewEncoder(w).Encode(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an authenticated request to a websocket connection and
// registers it. Authentication already happened in the middleware; a
// request without verified claims never reaches this point.
func ServeWs(hub *Hub, messages *services.MessageService, dispatcher services.Dispatcher, log *logger.Logger, c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	name := c.GetString("user_name")
	role, err := policy.ParseRole(c.GetString("role"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan *Event, sendBufferSize),
		connID:     uuid.New().String(),
		userID:     userID.(uint),
		name:       name,
		role:       role,
		rooms:      make(map[string]bool),
		messages:   messages,
		dispatcher: dispatcher,
		log:        log,
	}
	client.hub.register <- client
	go client.writePump()
	go client.readPump()
}
