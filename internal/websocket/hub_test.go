package websocket

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Send:   make(chan []byte, 16),
		Rooms:  make(map[uint]bool),
		Hub:    hub,
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBroadcastRoomFiltering(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	subscribed := newTestClient(hub)
	other := newTestClient(hub)
	unsubscribed := newTestClient(hub)

	hub.registerClient(subscribed)
	hub.registerClient(other)
	hub.registerClient(unsubscribed)

	hub.JoinRoom(subscribed, 1)
	hub.JoinRoom(other, 2)

	roomID := uint(1)
	hub.broadcastMessage(&BroadcastMessage{RoomID: &roomID, Message: []byte("event")})

	// Подписанный на комнату получает событие
	assert.Len(t, drain(subscribed), 1)
	// Подписанный на другую комнату — нет
	assert.Empty(t, drain(other))
	// Клиент без подписок получает все события
	assert.Len(t, drain(unsubscribed), 1)
}

func TestBroadcastAll(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	a := newTestClient(hub)
	b := newTestClient(hub)
	hub.registerClient(a)
	hub.registerClient(b)
	hub.JoinRoom(a, 1)

	hub.broadcastMessage(&BroadcastMessage{Message: []byte("global")})

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
}

func TestJoinLeaveRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	client := newTestClient(hub)
	hub.registerClient(client)

	hub.JoinRoom(client, 5)
	assert.True(t, client.IsInRoom(5))
	assert.Equal(t, []uuid.UUID{client.ID}, hub.GetRoomSubscribers(5))

	hub.LeaveRoom(client, 5)
	assert.False(t, client.IsInRoom(5))
	assert.Empty(t, hub.GetRoomSubscribers(5))
}

func TestUnregisterCleansUp(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	client := newTestClient(hub)
	hub.registerClient(client)
	hub.JoinRoom(client, 5)

	hub.unregisterClient(client)

	assert.Empty(t, hub.GetRoomSubscribers(5))

	// Канал закрыт
	_, open := <-client.Send
	assert.False(t, open)
}

func TestNotifyRoomEvent(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	client := newTestClient(hub)
	hub.registerClient(client)

	hub.NotifyRoomEvent(string(TypePermissionUpdated), 3, map[string]string{"field": "allow_urls"})

	// Событие лежит в очереди раздачи
	select {
	case bm := <-hub.broadcast:
		require.NotNil(t, bm.RoomID)
		assert.Equal(t, uint(3), *bm.RoomID)

		var msg Message
		require.NoError(t, json.Unmarshal(bm.Message, &msg))
		assert.Equal(t, TypePermissionUpdated, msg.Type)
		assert.False(t, msg.Timestamp.IsZero())
	default:
		t.Fatal("expected a queued broadcast")
	}
}
