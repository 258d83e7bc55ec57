package relay

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/thereayou/globalchat/internal/filter"
	"github.com/thereayou/globalchat/internal/format"
	"github.com/thereayou/globalchat/internal/models"
	"github.com/thereayou/globalchat/internal/platform"
)

// Config — настройки ретранслятора
type Config struct {
	// Пауза между отправками внутри одной рассылки:
	// защита от рейт-лимитов платформы
	SendDelay time.Duration

	// Сколько существующих комнат показывать в подсказке "не найдено"
	SuggestionLimit int
}

func DefaultConfig() Config {
	return Config{
		SendDelay:       250 * time.Millisecond,
		SuggestionLimit: 8,
	}
}

// FeedMessage — уведомление живой ленты админ-панели
type FeedMessage struct {
	MessageID string    `json:"message_id"`
	RoomID    uint      `json:"room_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Manager — оркестратор глобального чата: валидация входящего
// сообщения против политики комнаты, журналирование, разрешение
// ответов, форматирование и рассылка по всем привязкам комнаты
type Manager struct {
	store    Store
	cache    Cache
	gw       platform.Gateway
	filter   *filter.Filter
	state    *TrafficState
	perm     *PermissionManager
	replies  *ReplyHandler
	notifier Notifier
	log      zerolog.Logger
	cfg      Config
}

func NewManager(store Store, cache Cache, gw platform.Gateway, f *filter.Filter, state *TrafficState, notifier Notifier, log zerolog.Logger, cfg Config) *Manager {
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = 8
	}
	return &Manager{
		store:    store,
		cache:    cache,
		gw:       gw,
		filter:   f,
		state:    state,
		perm:     NewPermissionManager(gw, log),
		replies:  NewReplyHandler(store, cache, gw, log),
		notifier: notifier,
		log:      log,
		cfg:      cfg,
	}
}

// HandleMessage — одна единица работы ретранслятора.
// Возвращаемая ошибка означает отказ хранилища: сообщение
// отбрасывается вызывающим, следующее не затрагивается.
func (m *Manager) HandleMessage(ctx context.Context, msg *platform.Message) error {
	// Собственные сообщения игнорируются: защита от петли
	if msg.Author.ID == "" || msg.Author.ID == m.gw.BotUserID() {
		return nil
	}

	roomID, err := m.roomForChannel(ctx, msg.GuildID, msg.ChannelID)
	if err != nil {
		return err
	}
	if roomID == 0 {
		// Канал просто не состоит в комнате
		return nil
	}

	perms, err := m.permissionsFor(ctx, roomID)
	if err != nil {
		return err
	}

	if reason, ok := m.validate(msg, perms); !ok {
		m.reject(ctx, msg, reason)
		return nil
	}

	// Состояние трафика обновляется только после принятия
	m.state.Record(msg.GuildID, msg.Author.ID, msg.Content)

	reply := m.replies.Extract(ctx, msg, roomID)

	record := &models.RelayedMessage{
		MessageID: msg.ID,
		RoomID:    roomID,
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		UserID:    msg.Author.ID,
		Username:  msg.Author.Username,
		Content:   msg.Content,
	}
	if reply != nil {
		record.ReplyToMessageID = msg.Reference.MessageID
		record.ReplyToUsername = reply.Username
		record.ReplyToContent = reply.Content
		record.ReplyToUserID = reply.UserID
	}

	if err := m.store.LogMessage(record); err != nil {
		return err
	}

	prefix := ""
	if reply != nil {
		prefix = format.FormatReplyContext(reply.Username, reply.Content, reply.UserID)
	}

	attachments := make([]format.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, format.Attachment{
			URL:         a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}

	wire := format.FormatRelayedMessage(msg.GuildID, msg.ChannelID, msg.ID, msg.Author.ID, msg.Content, attachments, prefix)

	room, err := m.store.GetRoom(roomID)
	if err != nil {
		return err
	}

	dests, err := m.destinationsFor(ctx, roomID)
	if err != nil {
		return err
	}

	m.broadcast(ctx, msg, room, dests, wire)

	if m.notifier != nil {
		m.notifier.NotifyNewMessage(roomID, FeedMessage{
			MessageID: msg.ID,
			RoomID:    roomID,
			Username:  msg.Author.Username,
			Content:   wire,
			Timestamp: time.Now(),
		})
	}

	return nil
}

// validate применяет проверки политики в фиксированном порядке:
// первая неудавшаяся побеждает
func (m *Manager) validate(msg *platform.Message, perms *models.RoomPermission) (RejectReason, bool) {
	guildID, userID := msg.GuildID, msg.Author.ID

	window := time.Duration(perms.RateLimitSeconds) * time.Second
	if m.state.RateLimited(guildID, userID, window) {
		return RejectRateLimit, false
	}

	if m.state.IsDuplicate(guildID, userID, msg.Content) {
		return RejectDuplicate, false
	}

	if perms.MaxMessageLength > 0 && len([]rune(msg.Content)) > perms.MaxMessageLength {
		return RejectTooLong, false
	}

	if !perms.AllowURLs && m.filter.ContainsURL(msg.Content) {
		return RejectURL, false
	}

	if !perms.AllowFiles && len(msg.Attachments) > 0 {
		return RejectAttachment, false
	}

	if !perms.AllowMentions && (msg.MentionsEveryone || len(msg.MentionedUserIDs) > 0) {
		return RejectMention, false
	}

	if perms.FilterEnabled && m.filter.ContainsBlockedContent(msg.Content) {
		return RejectBlocked, false
	}

	return "", true
}

// reject сигнализирует отклонение реакцией и, для контентных причин,
// личным пояснением. Обе отправки — best effort.
func (m *Manager) reject(ctx context.Context, msg *platform.Message, reason RejectReason) {
	if err := m.gw.AddReaction(ctx, msg.ChannelID, msg.ID, reason.Emoji()); err != nil {
		m.log.Debug().Err(err).Str("message_id", msg.ID).Msg("reject reaction failed")
	}

	if text := reason.Explanation(); text != "" {
		if err := m.gw.SendDirectMessage(ctx, msg.Author.ID, text); err != nil {
			m.log.Debug().Err(err).Str("user_id", msg.Author.ID).Msg("reject DM failed")
		}
	}

	m.log.Info().
		Str("guild_id", msg.GuildID).
		Str("user_id", msg.Author.ID).
		Str("reason", string(reason)).
		Msg("message rejected")
}

// broadcast рассылает проводную строку по всем привязкам, кроме
// исходной. Отказ одной привязки изолирован: остальные получают
// сообщение, а регистрант проблемной привязки — уведомление.
func (m *Manager) broadcast(ctx context.Context, src *platform.Message, room *models.Room, dests []models.Destination, wire string) {
	for _, dest := range dests {
		if dest.GuildID == src.GuildID && dest.ChannelID == src.ChannelID {
			continue
		}

		if !m.perm.CanPostIn(ctx, dest.ChannelID) {
			m.perm.NotifyRegistrant(ctx, dest, "Send Messages", room.Name)
			m.notifyDestinationIssue(room.ID, dest)
			continue
		}

		if _, err := m.gw.SendMessage(ctx, dest.ChannelID, wire); err != nil {
			if errors.Is(err, platform.ErrForbidden) || errors.Is(err, platform.ErrNotFound) {
				m.perm.NotifyRegistrant(ctx, dest, "Send Messages", room.Name)
				m.notifyDestinationIssue(room.ID, dest)
			}
			m.log.Warn().
				Err(err).
				Str("guild_id", dest.GuildID).
				Str("channel_id", dest.ChannelID).
				Uint("room_id", room.ID).
				Msg("delivery failed")
		}

		if m.cfg.SendDelay > 0 {
			time.Sleep(m.cfg.SendDelay)
		}
	}
}

func (m *Manager) notifyDestinationIssue(roomID uint, dest models.Destination) {
	if m.notifier == nil {
		return
	}
	m.notifier.NotifyRoomEvent("destination_issue", roomID, map[string]string{
		"guild_id":   dest.GuildID,
		"channel_id": dest.ChannelID,
	})
}

// roomForChannel — привязка канала к комнате через кэш
func (m *Manager) roomForChannel(ctx context.Context, guildID, channelID string) (uint, error) {
	if m.cache != nil {
		if roomID, ok := m.cache.RoomIDForChannel(ctx, guildID, channelID); ok {
			return roomID, nil
		}
	}

	roomID, err := m.store.IsDestinationRegistered(guildID, channelID)
	if err != nil {
		return 0, err
	}

	if roomID != 0 && m.cache != nil {
		m.cache.SetRoomIDForChannel(ctx, guildID, channelID, roomID)
	}
	return roomID, nil
}

func (m *Manager) permissionsFor(ctx context.Context, roomID uint) (*models.RoomPermission, error) {
	if m.cache != nil {
		if perms, ok := m.cache.Permissions(ctx, roomID); ok {
			return perms, nil
		}
	}

	perms, err := m.store.GetRoomPermissions(roomID)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		m.cache.SetPermissions(ctx, roomID, perms)
	}
	return perms, nil
}

func (m *Manager) destinationsFor(ctx context.Context, roomID uint) ([]models.Destination, error) {
	if m.cache != nil {
		if dests, ok := m.cache.Destinations(ctx, roomID); ok {
			return dests, nil
		}
	}

	dests, err := m.store.GetDestinationsForRoom(roomID)
	if err != nil {
		return nil, err
	}

	if m.cache != nil {
		m.cache.SetDestinations(ctx, roomID, dests)
	}
	return dests, nil
}
