package database

import (
	"errors"

	"github.com/thereayou/globalchat/internal/models"
	"gorm.io/gorm"
)

var ErrRoomExists = errors.New("room already exists")

// CreateRoom создает комнату вместе с политикой по умолчанию.
// Имя нормализуется; дубликат по нормализованному имени — ошибка.
func (d *Database) CreateRoom(room *models.Room) error {
	room.Name = models.NormalizeName(room.Name)

	return d.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Room
		err := tx.Where("name = ?", room.Name).First(&existing).Error
		if err == nil {
			return ErrRoomExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(room).Error; err != nil {
			return err
		}

		return tx.Create(models.DefaultPermission(room.ID)).Error
	})
}

func (d *Database) GetRoom(id uint) (*models.Room, error) {
	var room models.Room
	if err := d.db.First(&room, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

// GetRoomByName ищет активную комнату по нормализованному имени
func (d *Database) GetRoomByName(name string) (*models.Room, error) {
	var room models.Room
	err := d.db.
		Where("name = ? AND is_active = ?", models.NormalizeName(name), true).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// GetAllRooms возвращает все активные комнаты
func (d *Database) GetAllRooms() ([]models.Room, error) {
	var rooms []models.Room
	err := d.db.
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rooms).Error
	return rooms, err
}

// DeactivateRoom мягко удаляет комнату и ее привязки
func (d *Database) DeactivateRoom(id uint) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Room{}).
			Where("id = ?", id).
			Update("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.Destination{}).
			Where("room_id = ?", id).
			Update("is_active", false).Error
	})
}
