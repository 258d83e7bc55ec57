package models

import (
	"strings"
	"time"
)

// Room — именованная группа каналов, между которыми ретранслируются сообщения
type Room struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"uniqueIndex;not null"`
	CreatedBy       string `gorm:"not null"`
	MaxDestinations int    `gorm:"default:25"`
	IsActive        bool   `gorm:"default:true"`
	CreatedAt       time.Time

	// Связи
	Destinations []Destination   `gorm:"foreignKey:RoomID"`
	Permission   *RoomPermission `gorm:"foreignKey:RoomID"`
}

// Destination — привязка (guild, channel) к комнате.
// Пара (GuildID, ChannelID) уникальна: повторная регистрация
// обновляет комнату, а не создает дубликат.
type Destination struct {
	ID           uint   `gorm:"primaryKey"`
	RoomID       uint   `gorm:"not null;index"`
	GuildID      string `gorm:"not null;uniqueIndex:idx_guild_channel"`
	ChannelID    string `gorm:"not null;uniqueIndex:idx_guild_channel"`
	GuildName    string
	ChannelName  string
	RegisteredBy string `gorm:"not null"`
	IsActive     bool   `gorm:"default:true"`
	CreatedAt    time.Time
}

// NormalizeName приводит имя комнаты к каноническому виду:
// нижний регистр, внутренние пробелы схлопнуты
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
