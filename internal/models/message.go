package models

import "time"

// RelayedMessage — журнальная запись входящего сообщения.
// После вставки не изменяется; используется для аналитики
// и восстановления цепочек ответов.
type RelayedMessage struct {
	ID        uint   `gorm:"primaryKey"`
	MessageID string `gorm:"not null;index"`
	RoomID    uint   `gorm:"not null;index"`
	GuildID   string `gorm:"not null"`
	ChannelID string `gorm:"not null"`
	UserID    string `gorm:"not null"`
	Username  string `gorm:"not null"`
	Content   string `gorm:"type:text"`

	// Поля ответа заполняются, если сообщение было ответом
	ReplyToMessageID string
	ReplyToUsername  string
	ReplyToContent   string
	ReplyToUserID    string

	CreatedAt time.Time
}
