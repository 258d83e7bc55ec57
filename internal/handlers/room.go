package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/thereayou/globalchat/internal/database"
	"github.com/thereayou/globalchat/internal/filter"
	"github.com/thereayou/globalchat/internal/handlers/dto"
	"github.com/thereayou/globalchat/internal/middleware"
	"github.com/thereayou/globalchat/internal/relay"
	ws "github.com/thereayou/globalchat/internal/websocket"
)

// RoomHandler — админские операции над комнатами и привязками.
// Мутации идут через relay.Manager, чтобы кэш и живая лента
// инвалидировались/уведомлялись единообразно с ботом.
type RoomHandler struct {
	mgr    *relay.Manager
	db     *database.Database
	hub    *ws.Hub
	filter *filter.Filter
}

func NewRoomHandler(mgr *relay.Manager, db *database.Database, hub *ws.Hub, f *filter.Filter) *RoomHandler {
	return &RoomHandler{mgr: mgr, db: db, hub: hub, filter: f}
}

// ListRooms возвращает активные комнаты со счетчиками привязок
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.db.GetAllRooms()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rooms"})
		return
	}

	response := make([]gin.H, len(rooms))
	for i, room := range rooms {
		count, _ := h.db.CountDestinations(room.ID)
		response[i] = gin.H{
			"id":               room.ID,
			"name":             room.Name,
			"created_by":       room.CreatedBy,
			"created_at":       room.CreatedAt,
			"max_destinations": room.MaxDestinations,
			"destinations":     count,
		}
	}

	c.JSON(http.StatusOK, gin.H{"rooms": response})
}

// CreateRoom создает комнату с политикой по умолчанию
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	username := c.MustGet(middleware.UsernameKey).(string)

	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.mgr.CreateRoom(c.Request.Context(), req.Name, username, req.MaxDestinations)
	if err != nil {
		if errors.Is(err, database.ErrRoomExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "room already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": room.ID, "name": room.Name})
}

// GetRoom возвращает комнату с политикой и привязками
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	perms, err := h.db.GetRoomPermissions(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get permissions"})
		return
	}

	dests, err := h.db.GetDestinationsForRoom(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get destinations"})
		return
	}

	messageCount, _ := h.db.CountMessages(roomID)

	destinations := make([]gin.H, len(dests))
	for i, d := range dests {
		destinations[i] = gin.H{
			"guild_id":      d.GuildID,
			"channel_id":    d.ChannelID,
			"guild_name":    d.GuildName,
			"channel_name":  d.ChannelName,
			"registered_by": d.RegisteredBy,
			"created_at":    d.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":               room.ID,
		"name":             room.Name,
		"created_by":       room.CreatedBy,
		"created_at":       room.CreatedAt,
		"is_active":        room.IsActive,
		"max_destinations": room.MaxDestinations,
		"message_count":    messageCount,
		"permissions": gin.H{
			"allow_urls":         perms.AllowURLs,
			"allow_files":        perms.AllowFiles,
			"allow_mentions":     perms.AllowMentions,
			"allow_emoji":        perms.AllowEmoji,
			"filter_enabled":     perms.FilterEnabled,
			"max_message_length": perms.MaxMessageLength,
			"rate_limit_seconds": perms.RateLimitSeconds,
			"updated_by":         perms.UpdatedBy,
			"updated_at":         perms.UpdatedAt,
		},
		"destinations": destinations,
	})
}

// DeleteRoom мягко удаляет комнату
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	if err := h.mgr.DeactivateRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "room deactivated"})
}

// UpdatePermission изменяет одно поле политики комнаты
func (h *RoomHandler) UpdatePermission(c *gin.Context) {
	username := c.MustGet(middleware.UsernameKey).(string)

	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	var req dto.PermissionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.mgr.UpdatePermission(c.Request.Context(), roomID, req.Field, req.Value, username, true)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrUnknownPermissionField):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown permission field"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update permission"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "permission updated"})
}

// RegisterDestination привязывает канал к комнате (админский путь:
// платформенная проверка прав пропускается)
func (h *RoomHandler) RegisterDestination(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	room, err := h.db.GetRoom(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	var req dto.RegisterDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err = h.mgr.RegisterChannel(c.Request.Context(), relay.RegisterRequest{
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		GuildName:   req.GuildName,
		ChannelName: req.ChannelName,
		RoomName:    room.Name,
	})
	if err != nil {
		if errors.Is(err, relay.ErrRoomFull) {
			c.JSON(http.StatusConflict, gin.H{"error": "room destination limit reached"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register destination"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "destination registered"})
}

// UnregisterDestination отвязывает канал
func (h *RoomHandler) UnregisterDestination(c *gin.Context) {
	guildID := c.Query("guild_id")
	channelID := c.Query("channel_id")
	if guildID == "" || channelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guild_id and channel_id are required"})
		return
	}

	if err := h.mgr.UnregisterChannel(c.Request.Context(), guildID, channelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "destination not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unregister destination"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "destination unregistered"})
}

// GetRoomMessages возвращает последние сообщения комнаты
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	messages, err := h.db.RecentMessages(roomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get messages"})
		return
	}

	response := make([]dto.MessageResponse, len(messages))
	for i, m := range messages {
		response[i] = dto.MessageResponse{
			ID:              m.ID,
			MessageID:       m.MessageID,
			RoomID:          m.RoomID,
			Username:        m.Username,
			Content:         m.Content,
			ReplyToUsername: m.ReplyToUsername,
			CreatedAt:       m.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"messages": response})
}

// ListBlockedWords возвращает текущий блок-лист
func (h *RoomHandler) ListBlockedWords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"words": h.filter.Words()})
}

// AddBlockedWord добавляет слово в блок-лист
func (h *RoomHandler) AddBlockedWord(c *gin.Context) {
	var req dto.BlockedWordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.filter.AddWord(req.Word)
	c.JSON(http.StatusCreated, gin.H{"words": h.filter.Words()})
}

// RemoveBlockedWord удаляет слово из блок-листа
func (h *RoomHandler) RemoveBlockedWord(c *gin.Context) {
	word := c.Param("word")
	if !h.filter.RemoveWord(word) {
		c.JSON(http.StatusNotFound, gin.H{"error": "word not in list"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"words": h.filter.Words()})
}

// ListCategories возвращает активные категории с подписками
func (h *RoomHandler) ListCategories(c *gin.Context) {
	cats, err := h.db.GetAllCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get categories"})
		return
	}

	response := make([]gin.H, len(cats))
	for i, cat := range cats {
		subs, _ := h.db.GetSubscriptionsForCategory(cat.ID)
		response[i] = gin.H{
			"id":            cat.ID,
			"name":          cat.Name,
			"created_by":    cat.CreatedBy,
			"created_at":    cat.CreatedAt,
			"subscriptions": len(subs),
		}
	}

	c.JSON(http.StatusOK, gin.H{"categories": response})
}

func parseRoomID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return 0, false
	}
	return uint(id), true
}
