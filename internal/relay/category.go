package relay

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thereayou/globalchat/internal/filter"
	"github.com/thereayou/globalchat/internal/format"
	"github.com/thereayou/globalchat/internal/models"
	"github.com/thereayou/globalchat/internal/platform"
	"github.com/thereayou/globalchat/internal/resolver"
)

// Лимит длины категорийного чата: общий для всех категорий,
// индивидуальных политик у категорий нет
const categoryMaxLength = 1500

// CategoryManager — облегченный вариант ретранслятора для
// категорийного чата: нечеткая подписка по свободному имени,
// один общий фильтр вместо политики на комнату
type CategoryManager struct {
	store  CategoryStore
	gw     platform.Gateway
	filter *filter.Filter
	log    zerolog.Logger
	cfg    Config
}

func NewCategoryManager(store CategoryStore, gw platform.Gateway, f *filter.Filter, log zerolog.Logger, cfg Config) *CategoryManager {
	return &CategoryManager{store: store, gw: gw, filter: f, log: log, cfg: cfg}
}

// HandleMessage ретранслирует сообщение по подпискам его категории
func (m *CategoryManager) HandleMessage(ctx context.Context, msg *platform.Message) error {
	if msg.Author.ID == "" || msg.Author.ID == m.gw.BotUserID() {
		return nil
	}

	categoryID, err := m.store.GetChannelCategory(msg.GuildID, msg.ChannelID)
	if err != nil {
		return err
	}
	if categoryID == 0 {
		return nil
	}

	if reason, ok := m.validate(msg); !ok {
		if err := m.gw.AddReaction(ctx, msg.ChannelID, msg.ID, reason.Emoji()); err != nil {
			m.log.Debug().Err(err).Str("message_id", msg.ID).Msg("reject reaction failed")
		}
		return nil
	}

	attachments := make([]format.Attachment, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		attachments = append(attachments, format.Attachment{
			URL:         a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}
	wire := format.FormatRelayedMessage(msg.GuildID, msg.ChannelID, msg.ID, msg.Author.ID, msg.Content, attachments, "")

	subs, err := m.store.GetSubscriptionsForCategory(categoryID)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		if sub.GuildID == msg.GuildID && sub.ChannelID == msg.ChannelID {
			continue
		}

		if _, err := m.gw.SendMessage(ctx, sub.ChannelID, wire); err != nil {
			m.log.Warn().
				Err(err).
				Str("channel_id", sub.ChannelID).
				Uint("category_id", categoryID).
				Msg("category delivery failed")
		}

		if m.cfg.SendDelay > 0 {
			time.Sleep(m.cfg.SendDelay)
		}
	}

	return nil
}

// Общий облегченный фильтр: длина, ссылки, блок-лист
func (m *CategoryManager) validate(msg *platform.Message) (RejectReason, bool) {
	if len([]rune(msg.Content)) > categoryMaxLength {
		return RejectTooLong, false
	}
	if m.filter.ContainsURL(msg.Content) {
		return RejectURL, false
	}
	if m.filter.ContainsBlockedContent(msg.Content) {
		return RejectBlocked, false
	}
	return "", true
}

// Subscribe подписывает канал на категорию по свободному имени.
// Имя разрешается нечетко; если похожей категории нет — создается новая.
func (m *CategoryManager) Subscribe(ctx context.Context, actorID, guildID, channelID, guildName, channelName, name string) (*models.Category, error) {
	if actorID != "" {
		ok, err := m.gw.CanManageChannels(ctx, channelID, actorID)
		if err != nil || !ok {
			return nil, ErrNotAuthorized
		}
	}

	cats, err := m.store.GetAllCategories()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}

	var category *models.Category
	if match, ok := resolver.Resolve(name, names); ok {
		for i := range cats {
			if cats[i].Name == match {
				category = &cats[i]
				break
			}
		}
	}

	if category == nil {
		category = &models.Category{
			Name:      name,
			CreatedBy: actorID,
			IsActive:  true,
			CreatedAt: time.Now(),
		}
		if err := m.store.CreateCategory(category); err != nil {
			return nil, err
		}
	}

	sub := &models.CategorySubscription{
		CategoryID:   category.ID,
		GuildID:      guildID,
		ChannelID:    channelID,
		GuildName:    guildName,
		ChannelName:  channelName,
		SubscribedBy: actorID,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := m.store.SubscribeChannel(sub); err != nil {
		return nil, err
	}

	return category, nil
}

// Unsubscribe отписывает канал от его категории
func (m *CategoryManager) Unsubscribe(ctx context.Context, guildID, channelID string) error {
	return m.store.UnsubscribeChannel(guildID, channelID)
}
