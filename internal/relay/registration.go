package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thereayou/globalchat/internal/models"
	"github.com/thereayou/globalchat/internal/resolver"
)

var (
	ErrNotAuthorized = errors.New("missing manage channels permission")
	ErrRoomFull      = errors.New("room destination limit reached")
)

// RoomNotFoundError — имя комнаты не удалось разрешить даже нечетко;
// несет подсказку с существующими комнатами
type RoomNotFoundError struct {
	Input     string
	Available []string
}

func (e *RoomNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("room %q not found, no rooms exist yet", e.Input)
	}
	return fmt.Sprintf("room %q not found, available: %s", e.Input, strings.Join(e.Available, ", "))
}

// RegisterRequest — параметры регистрации канала в комнате
type RegisterRequest struct {
	// ActorID — инициатор регистрации. Пустой ActorID означает
	// админский путь: платформенная проверка прав пропускается,
	// вызывающий уже авторизован иначе.
	ActorID     string
	GuildID     string
	ChannelID   string
	GuildName   string
	ChannelName string
	RoomName    string
}

// RegisterChannel привязывает канал к комнате, разрешая имя нечетко.
// Уже привязанный канал перепривязывается, а не дублируется.
func (m *Manager) RegisterChannel(ctx context.Context, req RegisterRequest) (*models.Room, error) {
	if req.ActorID != "" {
		ok, err := m.gw.CanManageChannels(ctx, req.ChannelID, req.ActorID)
		if err != nil || !ok {
			return nil, ErrNotAuthorized
		}
	}

	rooms, err := m.store.GetAllRooms()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(rooms))
	for i, r := range rooms {
		names[i] = r.Name
	}

	match, ok := resolver.Resolve(req.RoomName, names)
	if !ok {
		available := names
		if len(available) > m.cfg.SuggestionLimit {
			available = available[:m.cfg.SuggestionLimit]
		}
		return nil, &RoomNotFoundError{Input: req.RoomName, Available: available}
	}

	var room *models.Room
	for i := range rooms {
		if rooms[i].Name == match {
			room = &rooms[i]
			break
		}
	}
	if room == nil {
		return nil, &RoomNotFoundError{Input: req.RoomName}
	}

	// Перепривязка существующей пары не должна упираться в лимит
	prevRoomID, err := m.store.IsDestinationRegistered(req.GuildID, req.ChannelID)
	if err != nil {
		return nil, err
	}

	if prevRoomID != room.ID && room.MaxDestinations > 0 {
		count, err := m.store.CountDestinations(room.ID)
		if err != nil {
			return nil, err
		}
		if count >= int64(room.MaxDestinations) {
			return nil, ErrRoomFull
		}
	}

	dest := &models.Destination{
		RoomID:       room.ID,
		GuildID:      req.GuildID,
		ChannelID:    req.ChannelID,
		GuildName:    req.GuildName,
		ChannelName:  req.ChannelName,
		RegisteredBy: req.ActorID,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := m.store.RegisterDestination(dest); err != nil {
		return nil, err
	}

	m.invalidateChannel(ctx, req.GuildID, req.ChannelID, room.ID)
	if prevRoomID != 0 && prevRoomID != room.ID {
		m.invalidateRoom(ctx, prevRoomID)
	}

	if m.notifier != nil {
		m.notifier.NotifyRoomEvent("destination_registered", room.ID, map[string]string{
			"guild_id":   req.GuildID,
			"channel_id": req.ChannelID,
		})
	}

	m.log.Info().
		Str("guild_id", req.GuildID).
		Str("channel_id", req.ChannelID).
		Str("room", room.Name).
		Msg("channel registered")

	return room, nil
}

// UnregisterChannel отвязывает канал от его комнаты
func (m *Manager) UnregisterChannel(ctx context.Context, guildID, channelID string) error {
	roomID, err := m.store.IsDestinationRegistered(guildID, channelID)
	if err != nil {
		return err
	}

	if err := m.store.UnregisterDestination(guildID, channelID); err != nil {
		return err
	}

	m.invalidateChannel(ctx, guildID, channelID, roomID)
	return nil
}

// CreateRoom создает комнату с политикой по умолчанию
func (m *Manager) CreateRoom(ctx context.Context, name, createdBy string, maxDestinations int) (*models.Room, error) {
	if maxDestinations <= 0 {
		maxDestinations = 25
	}

	room := &models.Room{
		Name:            name,
		CreatedBy:       createdBy,
		MaxDestinations: maxDestinations,
		IsActive:        true,
		CreatedAt:       time.Now(),
	}
	if err := m.store.CreateRoom(room); err != nil {
		return nil, err
	}

	if m.notifier != nil {
		m.notifier.NotifyRoomEvent("room_created", room.ID, map[string]string{"name": room.Name})
	}

	return room, nil
}

// DeactivateRoom мягко удаляет комнату и сбрасывает ее кэш
func (m *Manager) DeactivateRoom(ctx context.Context, roomID uint) error {
	dests, err := m.store.GetDestinationsForRoom(roomID)
	if err != nil {
		return err
	}

	if err := m.store.DeactivateRoom(roomID); err != nil {
		return err
	}

	m.invalidateRoom(ctx, roomID)
	for _, d := range dests {
		if m.cache != nil {
			m.cache.InvalidateChannel(ctx, d.GuildID, d.ChannelID)
		}
	}

	if m.notifier != nil {
		m.notifier.NotifyRoomEvent("room_deleted", roomID, nil)
	}

	return nil
}

// UpdatePermission изменяет одно поле политики комнаты.
// Разрешено только создателю комнаты или администратору.
func (m *Manager) UpdatePermission(ctx context.Context, roomID uint, field string, value interface{}, updatedBy string, isAdmin bool) error {
	room, err := m.store.GetRoom(roomID)
	if err != nil {
		return err
	}

	if !isAdmin && room.CreatedBy != updatedBy {
		return ErrNotAuthorized
	}

	if err := m.store.UpdateRoomPermission(roomID, field, value, updatedBy); err != nil {
		return err
	}

	m.invalidateRoom(ctx, roomID)

	if m.notifier != nil {
		m.notifier.NotifyRoomEvent("permission_updated", roomID, map[string]interface{}{
			"field": field,
			"value": value,
		})
	}

	return nil
}

func (m *Manager) invalidateRoom(ctx context.Context, roomID uint) {
	if m.cache != nil && roomID != 0 {
		m.cache.InvalidateRoom(ctx, roomID)
	}
}

func (m *Manager) invalidateChannel(ctx context.Context, guildID, channelID string, roomID uint) {
	if m.cache == nil {
		return
	}
	m.cache.InvalidateChannel(ctx, guildID, channelID)
	if roomID != 0 {
		m.cache.InvalidateRoom(ctx, roomID)
	}
}
