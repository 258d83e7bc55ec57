package database

import (
	"github.com/thereayou/globalchat/internal/models"
)

// LogMessage добавляет запись в журнал сообщений
func (d *Database) LogMessage(msg *models.RelayedMessage) error {
	return d.db.Create(msg).Error
}

// GetMessageForReply ищет запись журнала для восстановления ответа
func (d *Database) GetMessageForReply(messageID string, roomID uint) (*models.RelayedMessage, error) {
	var msg models.RelayedMessage
	err := d.db.
		Where("message_id = ? AND room_id = ?", messageID, roomID).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// RecentMessages возвращает последние сообщения комнаты, старые первыми
func (d *Database) RecentMessages(roomID uint, limit int) ([]models.RelayedMessage, error) {
	var messages []models.RelayedMessage

	err := d.db.
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// CountMessages считает записи журнала комнаты
func (d *Database) CountMessages(roomID uint) (int64, error) {
	var count int64
	err := d.db.Model(&models.RelayedMessage{}).
		Where("room_id = ?", roomID).
		Count(&count).Error
	return count, err
}
