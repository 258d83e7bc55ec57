package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/globalchat/internal/models"
)

// TTLConfig — времена жизни по классам ключей.
// Кэш не авторитетен: значения лишь ускоряют чтение,
// каждая мутация хранилища обязана инвалидировать свои ключи.
type TTLConfig struct {
	Binding      time.Duration
	Permissions  time.Duration
	Destinations time.Duration
	Username     time.Duration
}

func DefaultTTL() TTLConfig {
	return TTLConfig{
		Binding:      30 * time.Minute,
		Permissions:  time.Hour,
		Destinations: 30 * time.Minute,
		Username:     2 * time.Hour,
	}
}

type Cache struct {
	rdb *redis.Client
	ttl TTLConfig
}

func NewCache(rdb *redis.Client, ttl TTLConfig) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func bindingKey(guildID, channelID string) string {
	return fmt.Sprintf("gc:chan:%s:%s", guildID, channelID)
}

func permissionsKey(roomID uint) string {
	return fmt.Sprintf("gc:perm:%d", roomID)
}

func destinationsKey(roomID uint) string {
	return fmt.Sprintf("gc:dest:%d", roomID)
}

func usernameKey(userID string) string {
	return fmt.Sprintf("gc:user:%s", userID)
}

// RoomIDForChannel возвращает закэшированную привязку канала к комнате
func (c *Cache) RoomIDForChannel(ctx context.Context, guildID, channelID string) (uint, bool) {
	val, err := c.rdb.Get(ctx, bindingKey(guildID, channelID)).Uint64()
	if err != nil {
		return 0, false
	}
	return uint(val), true
}

func (c *Cache) SetRoomIDForChannel(ctx context.Context, guildID, channelID string, roomID uint) {
	c.rdb.Set(ctx, bindingKey(guildID, channelID), uint64(roomID), c.ttl.Binding)
}

func (c *Cache) Permissions(ctx context.Context, roomID uint) (*models.RoomPermission, bool) {
	data, err := c.rdb.Get(ctx, permissionsKey(roomID)).Bytes()
	if err != nil {
		return nil, false
	}

	var perm models.RoomPermission
	if err := json.Unmarshal(data, &perm); err != nil {
		return nil, false
	}
	return &perm, true
}

func (c *Cache) SetPermissions(ctx context.Context, roomID uint, perm *models.RoomPermission) {
	data, err := json.Marshal(perm)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, permissionsKey(roomID), data, c.ttl.Permissions)
}

func (c *Cache) Destinations(ctx context.Context, roomID uint) ([]models.Destination, bool) {
	data, err := c.rdb.Get(ctx, destinationsKey(roomID)).Bytes()
	if err != nil {
		return nil, false
	}

	var dests []models.Destination
	if err := json.Unmarshal(data, &dests); err != nil {
		return nil, false
	}
	return dests, true
}

func (c *Cache) SetDestinations(ctx context.Context, roomID uint, dests []models.Destination) {
	data, err := json.Marshal(dests)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, destinationsKey(roomID), data, c.ttl.Destinations)
}

func (c *Cache) Username(ctx context.Context, userID string) (string, bool) {
	val, err := c.rdb.Get(ctx, usernameKey(userID)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *Cache) SetUsername(ctx context.Context, userID, username string) {
	c.rdb.Set(ctx, usernameKey(userID), username, c.ttl.Username)
}

// InvalidateRoom сбрасывает ключи комнаты после мутации хранилища
func (c *Cache) InvalidateRoom(ctx context.Context, roomID uint) {
	c.rdb.Del(ctx, permissionsKey(roomID), destinationsKey(roomID))
}

// InvalidateChannel сбрасывает привязку канала
func (c *Cache) InvalidateChannel(ctx context.Context, guildID, channelID string) {
	c.rdb.Del(ctx, bindingKey(guildID, channelID))
}
