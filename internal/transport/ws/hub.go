package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client message types
const (
	MsgJoinGame       MessageType = "join_game"
	MsgReadyUp        MessageType = "ready_up"
	MsgStartCountDown MessageType = "start_count_down"
	MsgGameStart      MessageType = "game_start"
	MsgReserveCard    MessageType = "reserve_card"
	MsgUnreserveCard  MessageType = "unreserve_card"
	MsgReserveCards   MessageType = "reserve_cards"
	MsgUnreserveCards MessageType = "unreserve_cards"
	MsgGameEnd        MessageType = "game_end"
)

// Server message types not produced by the services
const (
	MsgError MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections and room membership. Membership changes
// apply synchronously; messages go through one channel drained by one
// goroutine, so a room sees messages in the order they were sent.
type Hub struct {
	conns map[string]*Connection         // userID -> live connection
	rooms map[string]map[string]struct{} // roomID -> userIDs

	mu sync.RWMutex

	broadcast chan *BroadcastMessage
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.SugaredLogger
}

// Connection represents a WebSocket connection
type Connection struct {
	ID     string
	UserID string
	Name   string
	Send   chan []byte
	Hub    *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	RoomID   string
	ToPlayer string // set means one player, otherwise the room
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub(log *zap.SugaredLogger) *Hub {
	h := &Hub{
		conns:     make(map[string]*Connection),
		rooms:     make(map[string]map[string]struct{}),
		broadcast: make(chan *BroadcastMessage, 256),
		done:      make(chan struct{}),
		log:       log,
	}
	go h.run()
	return h
}

// NewConnection creates a connection for userID with a buffered send queue.
func (h *Hub) NewConnection(userID, name string) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Send:   make(chan []byte, 256),
		Hub:    h,
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	data, err := json.Marshal(msg.Message)
	if err != nil {
		h.log.Errorw("failed to encode message", "type", msg.Message.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if msg.ToPlayer != "" {
		if conn, ok := h.conns[msg.ToPlayer]; ok {
			h.send(conn, data)
		}
		return
	}
	for userID := range h.rooms[msg.RoomID] {
		if conn, ok := h.conns[userID]; ok {
			h.send(conn, data)
		}
	}
}

func (h *Hub) send(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop message if buffer full
		h.log.Warnw("dropping message for slow connection", "user", conn.UserID, "conn", conn.ID)
	}
}

// Register makes conn the live connection of its user, replacing and
// closing any previous one.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.conns[conn.UserID]; ok && prev != conn {
		close(prev.Send)
		h.log.Infow("connection replaced", "user", conn.UserID, "conn", prev.ID)
	}
	h.conns[conn.UserID] = conn
	h.log.Infow("player connected", "user", conn.UserID, "conn", conn.ID)
}

// Unregister removes conn and its user's room memberships, unless the user
// has already reconnected.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, ok := h.conns[conn.UserID]
	if !ok || existing != conn {
		return
	}
	delete(h.conns, conn.UserID)
	close(conn.Send)
	for roomID, members := range h.rooms {
		delete(members, conn.UserID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.log.Infow("player disconnected", "user", conn.UserID, "conn", conn.ID)
}

// JoinRoom adds userID to the room (implements service.Broadcaster)
func (h *Hub) JoinRoom(roomID, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]struct{})
	}
	h.rooms[roomID][userID] = struct{}{}
}

// DisconnectRoom drops every member of the room (implements service.Broadcaster).
// Connections stay open.
func (h *Hub) DisconnectRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// Members returns the user ids currently in the room.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.rooms[roomID]))
	for userID := range h.rooms[roomID] {
		out = append(out, userID)
	}
	return out
}

// BroadcastToRoom sends a message to everyone in the room (implements service.Broadcaster)
func (h *Hub) BroadcastToRoom(roomID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{RoomID: roomID}, msgType, payload)
}

// BroadcastToPlayer sends a message to one user (implements service.Broadcaster)
func (h *Hub) BroadcastToPlayer(userID string, msgType string, payload interface{}) {
	h.enqueue(&BroadcastMessage{ToPlayer: userID}, msgType, payload)
}

func (h *Hub) enqueue(msg *BroadcastMessage, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Errorw("failed to encode payload", "type", msgType, "error", err)
		return
	}
	msg.Message = &Message{Type: MessageType(msgType), Payload: data}

	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Close stops delivering messages. Connections are left to their pumps.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
