package database

import (
	"errors"

	"github.com/thereayou/globalchat/internal/models"
	"gorm.io/gorm"
)

// RegisterDestination регистрирует канал в комнате.
// Повторная регистрация существующей пары (guild, channel)
// обновляет привязку вместо создания дубликата.
func (d *Database) RegisterDestination(dest *models.Destination) error {
	var existing models.Destination
	err := d.db.
		Where("guild_id = ? AND channel_id = ?", dest.GuildID, dest.ChannelID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d.db.Create(dest).Error
	}
	if err != nil {
		return err
	}

	existing.RoomID = dest.RoomID
	existing.GuildName = dest.GuildName
	existing.ChannelName = dest.ChannelName
	existing.RegisteredBy = dest.RegisteredBy
	existing.IsActive = true

	if err := d.db.Save(&existing).Error; err != nil {
		return err
	}

	*dest = existing
	return nil
}

// UnregisterDestination мягко удаляет привязку канала
func (d *Database) UnregisterDestination(guildID, channelID string) error {
	res := d.db.Model(&models.Destination{}).
		Where("guild_id = ? AND channel_id = ?", guildID, channelID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetDestinationsForRoom возвращает активные привязки комнаты
func (d *Database) GetDestinationsForRoom(roomID uint) ([]models.Destination, error) {
	var dests []models.Destination
	err := d.db.
		Where("room_id = ? AND is_active = ?", roomID, true).
		Order("created_at ASC").
		Find(&dests).Error
	return dests, err
}

// GetDestination возвращает активную привязку канала
func (d *Database) GetDestination(guildID, channelID string) (*models.Destination, error) {
	var dest models.Destination
	err := d.db.
		Where("guild_id = ? AND channel_id = ? AND is_active = ?", guildID, channelID, true).
		First(&dest).Error
	if err != nil {
		return nil, err
	}
	return &dest, nil
}

// IsDestinationRegistered возвращает id комнаты канала, 0 — если канал не привязан
func (d *Database) IsDestinationRegistered(guildID, channelID string) (uint, error) {
	dest, err := d.GetDestination(guildID, channelID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	// Привязка к неактивной комнате не считается регистрацией
	var room models.Room
	if err := d.db.First(&room, "id = ?", dest.RoomID).Error; err != nil {
		return 0, err
	}
	if !room.IsActive {
		return 0, nil
	}

	return dest.RoomID, nil
}

// CountDestinations считает активные привязки комнаты
func (d *Database) CountDestinations(roomID uint) (int64, error) {
	var count int64
	err := d.db.Model(&models.Destination{}).
		Where("room_id = ? AND is_active = ?", roomID, true).
		Count(&count).Error
	return count, err
}
