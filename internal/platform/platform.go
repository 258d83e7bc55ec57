package platform

import (
	"context"
	"errors"
	"time"
)

var (
	ErrForbidden = errors.New("missing permission")
	ErrNotFound  = errors.New("not found")
)

type Author struct {
	ID       string
	Username string
	Bot      bool
}

type Attachment struct {
	URL         string
	Filename    string
	ContentType string
}

type Embed struct {
	Description string
}

// Reference — ссылка на сообщение, на которое отвечают
type Reference struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// Message — платформонезависимое представление входящего сообщения
type Message struct {
	ID        string
	GuildID   string
	ChannelID string
	Author    Author
	Content   string

	Attachments      []Attachment
	Embeds           []Embed
	MentionsEveryone bool
	MentionedUserIDs []string

	// Reference заполнен, если сообщение является ответом;
	// ReferencedMessage — если платформа уже разрешила ссылку
	Reference         *Reference
	ReferencedMessage *Message

	Timestamp time.Time
}

// Gateway — операции платформы, потребляемые ретранслятором
type Gateway interface {
	SendMessage(ctx context.Context, channelID, content string) (string, error)
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	SendDirectMessage(ctx context.Context, userID, content string) error
	FetchMessage(ctx context.Context, channelID, messageID string) (*Message, error)
	ResolveUser(ctx context.Context, userID string) (*Author, error)
	CanSendMessages(ctx context.Context, channelID string) (bool, error)
	CanManageChannels(ctx context.Context, channelID, userID string) (bool, error)
	BotUserID() string
}
