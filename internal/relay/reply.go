package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thereayou/globalchat/internal/format"
	"github.com/thereayou/globalchat/internal/platform"
	"gorm.io/gorm"
)

// ReplyData — восстановленные данные об исходном сообщении ответа
type ReplyData struct {
	Username string
	Content  string
	UserID   string
}

// ReplyHandler разрешает "это сообщение — ответ на X" в данные об
// исходном авторе. Три яруса по порядку, первый успех побеждает:
// журнал сообщений, живой запрос к платформе, заглушка.
// Ни одна ошибка внутри не покидает Extract: неудачное разрешение
// ответа деградирует, но не роняет ретрансляцию.
type ReplyHandler struct {
	store Store
	cache Cache
	gw    platform.Gateway
	log   zerolog.Logger
}

func NewReplyHandler(store Store, cache Cache, gw platform.Gateway, log zerolog.Logger) *ReplyHandler {
	return &ReplyHandler{store: store, cache: cache, gw: gw, log: log}
}

// Extract возвращает nil, если сообщение не является ответом
func (h *ReplyHandler) Extract(ctx context.Context, msg *platform.Message, roomID uint) *ReplyData {
	if msg.Reference == nil || msg.Reference.MessageID == "" {
		return nil
	}

	if data := h.fromStore(msg.Reference.MessageID, roomID); data != nil {
		return data
	}

	if data := h.fromLive(ctx, msg); data != nil {
		return data
	}

	return &ReplyData{Username: "Unknown User", Content: "[Message not found]"}
}

// Ярус 1: журнал — быстрый и авторитетный
func (h *ReplyHandler) fromStore(messageID string, roomID uint) *ReplyData {
	rec, err := h.store.GetMessageForReply(messageID, roomID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.log.Warn().Err(err).Str("message_id", messageID).Msg("reply store lookup failed")
		}
		return nil
	}
	return &ReplyData{Username: rec.Username, Content: rec.Content, UserID: rec.UserID}
}

// Ярус 2: уже разрешенная платформой ссылка или живой запрос
func (h *ReplyHandler) fromLive(ctx context.Context, msg *platform.Message) *ReplyData {
	referenced := msg.ReferencedMessage
	if referenced == nil {
		channelID := msg.Reference.ChannelID
		if channelID == "" {
			channelID = msg.ChannelID
		}

		fetched, err := h.gw.FetchMessage(ctx, channelID, msg.Reference.MessageID)
		if err != nil {
			h.log.Debug().Err(err).Str("message_id", msg.Reference.MessageID).Msg("reply fetch failed")
			return nil
		}
		referenced = fetched
	}

	if referenced.Author.ID == h.gw.BotUserID() {
		return h.fromRelayedText(ctx, referenced.Content)
	}

	if referenced.Content != "" {
		return &ReplyData{
			Username: referenced.Author.Username,
			Content:  referenced.Content,
			UserID:   referenced.Author.ID,
		}
	}

	// Сообщение без текста: эмбед или вложение
	if len(referenced.Embeds) > 0 && referenced.Embeds[0].Description != "" {
		return &ReplyData{
			Username: referenced.Author.Username,
			Content:  referenced.Embeds[0].Description,
			UserID:   referenced.Author.ID,
		}
	}
	if len(referenced.Attachments) > 0 {
		return &ReplyData{
			Username: referenced.Author.Username,
			Content:  fmt.Sprintf("[Attachment: %s]", referenced.Attachments[0].Filename),
			UserID:   referenced.Author.ID,
		}
	}

	return &ReplyData{
		Username: referenced.Author.Username,
		Content:  "[Embed message]",
		UserID:   referenced.Author.ID,
	}
}

// Отвечают на сообщение самого ретранслятора: исходный автор
// восстанавливается разбором проводного формата
func (h *ReplyHandler) fromRelayedText(ctx context.Context, text string) *ReplyData {
	parsed := format.ParseRelayedContent(text)

	data := &ReplyData{
		Username: parsed.Username,
		Content:  parsed.Content,
		UserID:   parsed.MentionID,
	}

	if parsed.MentionID != "" {
		data.Username = h.resolveUsername(ctx, parsed.MentionID)
	}

	return data
}

// Имя по id: кэш, живой запрос, синтетическая заглушка
func (h *ReplyHandler) resolveUsername(ctx context.Context, userID string) string {
	if h.cache != nil {
		if name, ok := h.cache.Username(ctx, userID); ok {
			return name
		}
	}

	user, err := h.gw.ResolveUser(ctx, userID)
	if err != nil {
		h.log.Debug().Err(err).Str("user_id", userID).Msg("user resolution failed")
		return "User" + userID
	}

	if h.cache != nil {
		h.cache.SetUsername(ctx, userID, user.Username)
	}
	return user.Username
}
