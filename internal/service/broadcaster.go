package service

// Broadcaster interface for WebSocket broadcasting (avoids import cycle).
// Room membership lives behind it, so services only name rooms and users.
type Broadcaster interface {
	JoinRoom(roomID, userID string)
	BroadcastToRoom(roomID string, msgType string, payload interface{})
	BroadcastToPlayer(userID string, msgType string, payload interface{})
	DisconnectRoom(roomID string)
}
