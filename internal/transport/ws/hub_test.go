package ws

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const wait = time.Second

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zap.NewNop().Sugar())
	t.Cleanup(h.Close)
	return h
}

func connect(h *Hub, userID string) *Connection {
	conn := h.NewConnection(userID, "")
	h.Register(conn)
	return conn
}

func receive(t *testing.T, conn *Connection) *Message {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send queue closed")
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return &msg
	case <-time.After(wait):
		t.Fatal("no message")
		return nil
	}
}

func nothing(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data := <-conn.Send:
		t.Fatalf("unexpected message %s", data)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestHub_RoomBroadcastReachesMembersOnly(t *testing.T) {
	h := newTestHub(t)
	alice := connect(h, "alice")
	bob := connect(h, "bob")
	carol := connect(h, "carol")

	h.JoinRoom("s1", "alice")
	h.JoinRoom("s1", "bob")
	h.JoinRoom("s2", "carol")
	assert.ElementsMatch(t, []string{"alice", "bob"}, h.Members("s1"))

	h.BroadcastToRoom("s1", "called_number", map[string]int{"number": 7})

	for _, conn := range []*Connection{alice, bob} {
		msg := receive(t, conn)
		assert.Equal(t, MessageType("called_number"), msg.Type)
		assert.JSONEq(t, `{"number":7}`, string(msg.Payload))
	}
	nothing(t, carol)
}

func TestHub_PreservesOrder(t *testing.T) {
	h := newTestHub(t)
	alice := connect(h, "alice")
	h.JoinRoom("s1", "alice")

	for i := 0; i < 100; i++ {
		h.BroadcastToRoom("s1", "called_number", i)
	}
	for i := 0; i < 100; i++ {
		assert.Equal(t, fmt.Sprint(i), string(receive(t, alice).Payload))
	}
}

func TestHub_BroadcastToPlayer(t *testing.T) {
	h := newTestHub(t)
	alice := connect(h, "alice")
	bob := connect(h, "bob")

	h.BroadcastToPlayer("bob", "user-update", map[string]string{"id": "bob"})
	assert.Equal(t, MessageType("user-update"), receive(t, bob).Type)
	nothing(t, alice)

	// unknown users are ignored
	h.BroadcastToPlayer("ghost", "user-update", nil)
	nothing(t, alice)
}

func TestHub_DisconnectRoom(t *testing.T) {
	h := newTestHub(t)
	alice := connect(h, "alice")
	h.JoinRoom("s1", "alice")
	h.JoinRoom("s2", "alice")

	h.DisconnectRoom("s1")
	assert.Empty(t, h.Members("s1"))
	h.BroadcastToRoom("s1", "game_session_update", nil)
	nothing(t, alice)

	// other rooms and the connection itself are untouched
	h.BroadcastToRoom("s2", "game_session_update", nil)
	receive(t, alice)
}

func TestHub_UnregisterDropsMembership(t *testing.T) {
	h := newTestHub(t)
	alice := connect(h, "alice")
	h.JoinRoom("s1", "alice")

	h.Unregister(alice)
	_, open := <-alice.Send
	assert.False(t, open)
	assert.Empty(t, h.Members("s1"))

	// a second unregister is a no-op
	h.Unregister(alice)
}

func TestHub_ReconnectReplacesConnection(t *testing.T) {
	h := newTestHub(t)
	first := connect(h, "alice")
	h.JoinRoom("s1", "alice")

	second := connect(h, "alice")
	_, open := <-first.Send
	assert.False(t, open, "the old connection is closed")

	// the old connection going away must not drop the new one
	h.Unregister(first)
	assert.ElementsMatch(t, []string{"alice"}, h.Members("s1"))

	h.BroadcastToRoom("s1", "game_session_update", nil)
	receive(t, second)
}

func TestHub_DropsForSlowConsumer(t *testing.T) {
	h := newTestHub(t)
	slow := &Connection{ID: "c1", UserID: "slow", Send: make(chan []byte, 1), Hub: h}
	h.Register(slow)
	marker := connect(h, "marker")

	h.BroadcastToPlayer("slow", "called_number", 1)
	h.BroadcastToPlayer("slow", "called_number", 2)
	h.BroadcastToPlayer("marker", "called_number", 3)
	receive(t, marker)

	assert.Equal(t, "1", string(receive(t, slow).Payload))
	nothing(t, slow)
}
