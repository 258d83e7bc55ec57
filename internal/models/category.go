package models

import "time"

// Category — облегченный вариант комнаты для категорийного чата.
// Без индивидуальной политики: все категории используют общий фильтр.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	CreatedBy string `gorm:"not null"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time

	// Связи
	Subscriptions []CategorySubscription `gorm:"foreignKey:CategoryID"`
}

// CategorySubscription — подписка канала на категорию
type CategorySubscription struct {
	ID           uint   `gorm:"primaryKey"`
	CategoryID   uint   `gorm:"not null;index"`
	GuildID      string `gorm:"not null;uniqueIndex:idx_cat_guild_channel"`
	ChannelID    string `gorm:"not null;uniqueIndex:idx_cat_guild_channel"`
	GuildName    string
	ChannelName  string
	SubscribedBy string `gorm:"not null"`
	IsActive     bool   `gorm:"default:true"`
	CreatedAt    time.Time
}
