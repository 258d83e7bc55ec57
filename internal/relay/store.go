package relay

import (
	"context"

	"github.com/thereayou/globalchat/internal/models"
)

// Store — авторитетное хранилище комнат, привязок и журнала.
// Реализуется пакетом database; ретранслятор только потребляет.
type Store interface {
	CreateRoom(room *models.Room) error
	GetRoom(id uint) (*models.Room, error)
	GetRoomByName(name string) (*models.Room, error)
	GetAllRooms() ([]models.Room, error)
	DeactivateRoom(id uint) error

	GetRoomPermissions(roomID uint) (*models.RoomPermission, error)
	UpdateRoomPermission(roomID uint, field string, value interface{}, updatedBy string) error

	RegisterDestination(dest *models.Destination) error
	UnregisterDestination(guildID, channelID string) error
	GetDestinationsForRoom(roomID uint) ([]models.Destination, error)
	IsDestinationRegistered(guildID, channelID string) (uint, error)
	CountDestinations(roomID uint) (int64, error)

	LogMessage(msg *models.RelayedMessage) error
	GetMessageForReply(messageID string, roomID uint) (*models.RelayedMessage, error)
}

// CategoryStore — хранилище категорийного чата
type CategoryStore interface {
	CreateCategory(cat *models.Category) error
	GetCategoryByName(name string) (*models.Category, error)
	GetAllCategories() ([]models.Category, error)
	SubscribeChannel(sub *models.CategorySubscription) error
	UnsubscribeChannel(guildID, channelID string) error
	GetSubscriptionsForCategory(categoryID uint) ([]models.CategorySubscription, error)
	GetChannelCategory(guildID, channelID string) (uint, error)
}

// Cache — необязательный слой чтения перед хранилищем.
// Промахи и ошибки кэша прозрачно уходят в Store.
type Cache interface {
	RoomIDForChannel(ctx context.Context, guildID, channelID string) (uint, bool)
	SetRoomIDForChannel(ctx context.Context, guildID, channelID string, roomID uint)
	Permissions(ctx context.Context, roomID uint) (*models.RoomPermission, bool)
	SetPermissions(ctx context.Context, roomID uint, perm *models.RoomPermission)
	Destinations(ctx context.Context, roomID uint) ([]models.Destination, bool)
	SetDestinations(ctx context.Context, roomID uint, dests []models.Destination)
	Username(ctx context.Context, userID string) (string, bool)
	SetUsername(ctx context.Context, userID, username string)
	InvalidateRoom(ctx context.Context, roomID uint)
	InvalidateChannel(ctx context.Context, guildID, channelID string)
}

// Notifier — необязательный канал живых уведомлений админ-панели
type Notifier interface {
	NotifyNewMessage(roomID uint, data interface{})
	NotifyRoomEvent(event string, roomID uint, data interface{})
}
