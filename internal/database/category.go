package database

import (
	"errors"

	"github.com/thereayou/globalchat/internal/models"
	"gorm.io/gorm"
)

func (d *Database) CreateCategory(cat *models.Category) error {
	cat.Name = models.NormalizeName(cat.Name)
	return d.db.Create(cat).Error
}

func (d *Database) GetCategoryByName(name string) (*models.Category, error) {
	var cat models.Category
	err := d.db.
		Where("name = ? AND is_active = ?", models.NormalizeName(name), true).
		First(&cat).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (d *Database) GetAllCategories() ([]models.Category, error) {
	var cats []models.Category
	err := d.db.
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&cats).Error
	return cats, err
}

// SubscribeChannel подписывает канал на категорию.
// Существующая подписка пары (guild, channel) перепривязывается.
func (d *Database) SubscribeChannel(sub *models.CategorySubscription) error {
	var existing models.CategorySubscription
	err := d.db.
		Where("guild_id = ? AND channel_id = ?", sub.GuildID, sub.ChannelID).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return d.db.Create(sub).Error
	}
	if err != nil {
		return err
	}

	existing.CategoryID = sub.CategoryID
	existing.GuildName = sub.GuildName
	existing.ChannelName = sub.ChannelName
	existing.SubscribedBy = sub.SubscribedBy
	existing.IsActive = true

	if err := d.db.Save(&existing).Error; err != nil {
		return err
	}

	*sub = existing
	return nil
}

func (d *Database) UnsubscribeChannel(guildID, channelID string) error {
	res := d.db.Model(&models.CategorySubscription{}).
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

func (d *Database) GetSubscriptionsForCategory(categoryID uint) ([]models.CategorySubscription, error) {
	var subs []models.CategorySubscription
	err := d.db.
		Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

// GetChannelCategory возвращает id категории канала, 0 — если канал не подписан
func (d *Database) GetChannelCategory(guildID, channelID string) (uint, error) {
	var sub models.CategorySubscription
	err := d.db.
		Where("guild_id = ? AND channel_id = ? AND is_active = ?", guildID, channelID, true).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return sub.CategoryID, nil
}
