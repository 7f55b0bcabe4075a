package ws

import (
	"strconv"
	"sync"

	"go.uber.org/zap"

	logger "github.com/studiohub/studiohub/middleware/log"
)

// Hub owns room membership and fan-out for this process. Rooms are keyed
// "project:<id>"; personal channels are not rooms, they resolve through
// the registry so every open device of a user is reached individually.
// Register/unregister/broadcast flow through channels serialized by Run;
// join and leave take the lock directly.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *roomBroadcast

	registry *Registry
	log      *logger.Logger
}

type roomBroadcast struct {
	room    string
	event   *Event
	exclude *Client
}

func NewHub(registry *Registry, log *logger.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomBroadcast),
		registry:   registry,
		log:        log,
	}
}

// ProjectRoom names the room for a project.
func ProjectRoom(projectID uint) string {
	return "project:" + strconv.FormatUint(uint64(projectID), 10)
}

// UserRoom names the logical personal channel of a user.
func UserRoom(userID uint) string {
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// Run drives the hub loop. Start it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registry.Register(client)

		case client := <-h.unregister:
			h.dropClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	for room := range client.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	client.rooms = make(map[string]bool)
	h.mu.Unlock()

	h.registry.Unregister(client)
	client.closeSend()

	h.log.Info("client disconnected",
		zap.Uint("user_id", client.userID),
		zap.String("conn_id", client.connID),
		zap.Int("connections", h.registry.Count()),
	)
}

func (h *Hub) deliver(msg *roomBroadcast) {
	h.mu.RLock()
	var stalled []*Client
	if members, ok := h.rooms[msg.room]; ok {
		for client := range members {
			if client == msg.exclude {
				continue
			}
			if !client.enqueue(msg.event) {
				stalled = append(stalled, client)
			}
		}
	}
	h.mu.RUnlock()

	// A full send buffer means the peer stopped reading; drop it rather
	// than block the loop.
	for _, client := range stalled {
		h.dropClient(client)
	}
}

// JoinProject adds the connection to the project room. Idempotent.
func (h *Hub) JoinProject(client *Client, projectID uint) string {
	room := ProjectRoom(projectID)
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
	client.rooms[room] = true
	h.mu.Unlock()

	h.log.Debug("joined room", zap.String("room", room), zap.Uint("user_id", client.userID))
	return room
}

// LeaveProject removes the connection from the project room.
func (h *Hub) LeaveProject(client *Client, projectID uint) {
	room := ProjectRoom(projectID)
	h.mu.Lock()
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(client.rooms, room)
	h.mu.Unlock()

	h.log.Debug("left room", zap.String("room", room), zap.Uint("user_id", client.userID))
}

// EmitToProject broadcasts one event to the project room.
func (h *Hub) EmitToProject(projectID uint, event string, payload any) {
	h.broadcast <- &roomBroadcast{
		room:  ProjectRoom(projectID),
		event: &Event{Event: event, Data: payload},
	}
}

// EmitToProjectExcept broadcasts to the room, skipping one connection.
// Used for typing indicators, which the typist must not echo back.
func (h *Hub) EmitToProjectExcept(projectID uint, except *Client, event string, payload any) {
	h.broadcast <- &roomBroadcast{
		room:    ProjectRoom(projectID),
		event:   &Event{Event: event, Data: payload},
		exclude: except,
	}
}

// EmitToUser pushes an event to every open connection of the user,
// individually rather than via a room, so each device receives it.
func (h *Hub) EmitToUser(userID uint, event string, payload any) {
	evt := &Event{Event: event, Data: payload}
	for _, client := range h.registry.ConnectionsFor(userID) {
		if !client.enqueue(evt) {
			h.log.Warn("dropping event for stalled connection",
				zap.Uint("user_id", userID),
				zap.String("conn_id", client.connID),
				zap.String("event", event),
			)
		}
	}
}

// RoomSize reports current room occupancy.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
