// Package discord реализует platform.Gateway поверх discordgo
package discord

import (
	"context"
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/thereayou/globalchat/internal/platform"
)

type Gateway struct {
	session *discordgo.Session
	log     zerolog.Logger
}

func NewGateway(session *discordgo.Session, log zerolog.Logger) *Gateway {
	return &Gateway{session: session, log: log}
}

// mapError переводит REST-ошибки Discord в ошибки платформы
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusForbidden:
			return platform.ErrForbidden
		case http.StatusNotFound:
			return platform.ErrNotFound
		}
	}
	return err
}

func (g *Gateway) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	msg, err := g.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", mapError(err)
	}
	return msg.ID, nil
}

func (g *Gateway) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	return mapError(g.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)))
}

func (g *Gateway) SendDirectMessage(ctx context.Context, userID, content string) error {
	dm, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return mapError(err)
	}
	_, err = g.session.ChannelMessageSend(dm.ID, content, discordgo.WithContext(ctx))
	return mapError(err)
}

func (g *Gateway) FetchMessage(ctx context.Context, channelID, messageID string) (*platform.Message, error) {
	msg, err := g.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return FromDiscordMessage(msg), nil
}

func (g *Gateway) ResolveUser(ctx context.Context, userID string) (*platform.Author, error) {
	user, err := g.session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, mapError(err)
	}
	return &platform.Author{ID: user.ID, Username: user.Username, Bot: user.Bot}, nil
}

func (g *Gateway) CanSendMessages(ctx context.Context, channelID string) (bool, error) {
	perms, err := g.session.UserChannelPermissions(g.BotUserID(), channelID)
	if err != nil {
		return false, mapError(err)
	}
	return perms&discordgo.PermissionSendMessages != 0, nil
}

func (g *Gateway) CanManageChannels(ctx context.Context, channelID, userID string) (bool, error) {
	perms, err := g.session.UserChannelPermissions(userID, channelID)
	if err != nil {
		return false, mapError(err)
	}
	return perms&(discordgo.PermissionManageChannels|discordgo.PermissionAdministrator) != 0, nil
}

func (g *Gateway) BotUserID() string {
	if g.session.State != nil && g.session.State.User != nil {
		return g.session.State.User.ID
	}
	return ""
}

// MessageHandler — обработчик входящего сообщения платформы
type MessageHandler func(ctx context.Context, msg *platform.Message)

// OnMessageCreate подписывает обработчик на события создания сообщений
func (g *Gateway) OnMessageCreate(handler MessageHandler) {
	g.session.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Message == nil {
			return
		}
		handler(context.Background(), FromDiscordMessage(m.Message))
	})
}

// FromDiscordMessage переводит сообщение discordgo в платформонезависимый вид
func FromDiscordMessage(m *discordgo.Message) *platform.Message {
	msg := &platform.Message{
		ID:               m.ID,
		GuildID:          m.GuildID,
		ChannelID:        m.ChannelID,
		Content:          m.Content,
		MentionsEveryone: m.MentionEveryone,
		Timestamp:        m.Timestamp,
	}

	if m.Author != nil {
		msg.Author = platform.Author{ID: m.Author.ID, Username: m.Author.Username, Bot: m.Author.Bot}
	}

	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, platform.Attachment{
			URL:         a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}

	for _, e := range m.Embeds {
		msg.Embeds = append(msg.Embeds, platform.Embed{Description: e.Description})
	}

	for _, u := range m.Mentions {
		msg.MentionedUserIDs = append(msg.MentionedUserIDs, u.ID)
	}

	if m.MessageReference != nil {
		msg.Reference = &platform.Reference{
			GuildID:   m.MessageReference.GuildID,
			ChannelID: m.MessageReference.ChannelID,
			MessageID: m.MessageReference.MessageID,
		}
	}

	if m.ReferencedMessage != nil {
		msg.ReferencedMessage = FromDiscordMessage(m.ReferencedMessage)
	}

	return msg
}
