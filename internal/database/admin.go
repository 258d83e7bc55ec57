package database

import (
	"time"

	"github.com/thereayou/globalchat/internal/models"
)

func (d *Database) SaveAdminUser(user *models.AdminUser) error {
	return d.db.Create(user).Error
}

func (d *Database) FindAdminByUsername(username string) (*models.AdminUser, error) {
	user := models.AdminUser{}
	if err := d.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) UpdateAdminLastSeen(id string) error {
	return d.db.Model(&models.AdminUser{}).Where("id = ?", id).Update("last_seen_at", time.Now()).Error
}
