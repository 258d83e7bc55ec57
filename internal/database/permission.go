package database

import (
	"errors"
	"time"

	"github.com/thereayou/globalchat/internal/models"
)

var ErrUnknownPermissionField = errors.New("unknown permission field")

// Поля политики, изменяемые через UpdateRoomPermission
var permissionFields = map[string]bool{
	"allow_urls":         true,
	"allow_files":        true,
	"allow_mentions":     true,
	"allow_emoji":        true,
	"filter_enabled":     true,
	"max_message_length": true,
	"rate_limit_seconds": true,
}

func (d *Database) GetRoomPermissions(roomID uint) (*models.RoomPermission, error) {
	var perm models.RoomPermission
	if err := d.db.Where("room_id = ?", roomID).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

// UpdateRoomPermission изменяет одно поле политики с аудитом
func (d *Database) UpdateRoomPermission(roomID uint, field string, value interface{}, updatedBy string) error {
	if !permissionFields[field] {
		return ErrUnknownPermissionField
	}

	return d.db.Model(&models.RoomPermission{}).
		Where("room_id = ?", roomID).
		Updates(map[string]interface{}{
			field:        value,
			"updated_by": updatedBy,
			"updated_at": time.Now(),
		}).Error
}
