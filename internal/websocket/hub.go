package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// MessageType определяет типы сообщений ленты
type MessageType string

const (
	// Системные типы
	TypeConnect MessageType = "connect"
	TypePing    MessageType = "ping"
	TypePong    MessageType = "pong"
	TypeError   MessageType = "error"

	// Подписка дашборда на комнаты
	TypeRoomJoin  MessageType = "room_join"
	TypeRoomLeave MessageType = "room_leave"

	// События ретранслятора
	TypeFeedMessage       MessageType = "feed_message"
	TypeRoomCreated       MessageType = "room_created"
	TypeRoomDeleted       MessageType = "room_deleted"
	TypePermissionUpdated MessageType = "permission_updated"
	TypeDestinationIssue  MessageType = "destination_issue"
	TypeDestinationAdded  MessageType = "destination_registered"
)

type Message struct {
	Type      MessageType     `json:"type"`
	RoomID    *uint           `json:"room_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Rooms  map[uint]bool
	Hub    *Hub
	mu     sync.RWMutex
}

// Hub раздает события ретранслятора подключенным клиентам админ-панели.
// Клиент без подписок получает все события; подписанный — только
// события своих комнат.
type Hub struct {
	clients map[uuid.UUID]*Client

	// Клиенты по UserID (один пользователь может иметь несколько соединений)
	userClients map[uuid.UUID]map[uuid.UUID]*Client

	// Клиенты, подписанные на конкретные комнаты
	rooms map[uint]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage

	mu  sync.RWMutex
	log zerolog.Logger

	// Контекст для graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// BroadcastMessage — событие для раздачи.
// RoomID == nil означает раздачу всем клиентам.
type BroadcastMessage struct {
	RoomID  *uint
	Message []byte
}

func NewHub(log zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[uuid.UUID]map[uuid.UUID]*Client),
		rooms:       make(map[uint]map[uuid.UUID]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan *BroadcastMessage, 64),
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run запускает hub
func (h *Hub) Run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.ping()
		}
	}
}

// Stop останавливает hub
func (h *Hub) Stop() {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Send)
		client.Conn.Close()
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if _, ok := h.userClients[client.UserID]; !ok {
		h.userClients[client.UserID] = make(map[uuid.UUID]*Client)
	}
	h.userClients[client.UserID][client.ID] = client

	h.log.Debug().
		Str("client_id", client.ID.String()).
		Str("user_id", client.UserID.String()).
		Msg("feed client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		for roomID := range client.Rooms {
			h.removeFromRoomUnsafe(client, roomID)
		}

		if userClients, ok := h.userClients[client.UserID]; ok {
			delete(userClients, client.ID)
			if len(userClients) == 0 {
				delete(h.userClients, client.UserID)
			}
		}

		delete(h.clients, client.ID)
		close(client.Send)

		h.log.Debug().
			Str("client_id", client.ID.String()).
			Msg("feed client unregistered")
	}
}

// JoinRoom подписывает клиента на события комнаты
func (h *Hub) JoinRoom(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[uuid.UUID]*Client)
	}

	h.rooms[roomID][client.ID] = client
	client.mu.Lock()
	client.Rooms[roomID] = true
	client.mu.Unlock()
}

// LeaveRoom отписывает клиента от событий комнаты
func (h *Hub) LeaveRoom(client *Client, roomID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeFromRoomUnsafe(client, roomID)
}

func (h *Hub) removeFromRoomUnsafe(client *Client, roomID uint) {
	if room, ok := h.rooms[roomID]; ok {
		delete(room, client.ID)
		client.mu.Lock()
		delete(client.Rooms, roomID)
		client.mu.Unlock()

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) broadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if msg.RoomID != nil && client.hasSubscriptions() && !client.IsInRoom(*msg.RoomID) {
			continue
		}

		select {
		case client.Send <- msg.Message:
		default:
			h.log.Debug().Str("client_id", client.ID.String()).Msg("client send channel full")
		}
	}
}

func (h *Hub) ping() {
	msg := Message{Type: TypePing, Timestamp: time.Now()}
	if data, err := json.Marshal(msg); err == nil {
		h.broadcastMessage(&BroadcastMessage{Message: data})
	}
}

// NotifyNewMessage раздает уведомление о новом ретранслированном
// сообщении. Best effort: недоставка не влияет на ретрансляцию.
func (h *Hub) NotifyNewMessage(roomID uint, data interface{}) {
	h.NotifyRoomEvent(string(TypeFeedMessage), roomID, data)
}

// NotifyRoomEvent раздает произвольное событие комнаты
func (h *Hub) NotifyRoomEvent(event string, roomID uint, data interface{}) {
	msg := Message{
		Type:      MessageType(event),
		RoomID:    &roomID,
		Timestamp: time.Now(),
	}

	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			h.log.Warn().Err(err).Str("event", event).Msg("feed payload marshal failed")
			return
		}
		msg.Data = payload
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{RoomID: &roomID, Message: raw}:
	default:
		h.log.Warn().Str("event", event).Msg("feed broadcast queue full, event dropped")
	}
}

// GetRoomSubscribers возвращает id клиентов, подписанных на комнату
func (h *Hub) GetRoomSubscribers(roomID uint) []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := make([]uuid.UUID, 0)
	if room, ok := h.rooms[roomID]; ok {
		for id := range room {
			subs = append(subs, id)
		}
	}
	return subs
}
