package models

import "time"

// RoomPermission — политика контента комнаты (ровно одна на комнату).
// Создается вместе с комнатой с безопасными значениями по умолчанию:
// ссылки и файлы запрещены, фильтр включен.
type RoomPermission struct {
	ID               uint `gorm:"primaryKey"`
	RoomID           uint `gorm:"uniqueIndex;not null"`
	AllowURLs        bool `gorm:"default:false"`
	AllowFiles       bool `gorm:"default:false"`
	AllowMentions    bool `gorm:"default:false"`
	AllowEmoji       bool `gorm:"default:true"`
	FilterEnabled    bool `gorm:"default:true"`
	MaxMessageLength int  `gorm:"default:1000"`
	RateLimitSeconds int  `gorm:"default:3"`
	UpdatedBy        string
	UpdatedAt        time.Time
}

// DefaultPermission возвращает политику с безопасными значениями
func DefaultPermission(roomID uint) *RoomPermission {
	return &RoomPermission{
		RoomID:           roomID,
		AllowURLs:        false,
		AllowFiles:       false,
		AllowMentions:    false,
		AllowEmoji:       true,
		FilterEnabled:    true,
		MaxMessageLength: 1000,
		RateLimitSeconds: 3,
	}
}
