package dto

import "time"

// PermissionUpdateRequest — изменение одного поля политики
type PermissionUpdateRequest struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value" binding:"required"`
}

type CreateRoomRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=64"`
	MaxDestinations int    `json:"max_destinations"`
}

type RegisterDestinationRequest struct {
	GuildID     string `json:"guild_id" binding:"required"`
	ChannelID   string `json:"channel_id" binding:"required"`
	GuildName   string `json:"guild_name"`
	ChannelName string `json:"channel_name"`
}

type BlockedWordRequest struct {
	Word string `json:"word" binding:"required"`
}

type MessageResponse struct {
	ID              uint      `json:"id"`
	MessageID       string    `json:"message_id"`
	RoomID          uint      `json:"room_id"`
	Username        string    `json:"username"`
	Content         string    `json:"content"`
	ReplyToUsername string    `json:"reply_to_username,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
