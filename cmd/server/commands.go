package main

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/thereayou/globalchat/internal/platform"
	"github.com/thereayou/globalchat/internal/relay"
)

const commandPrefix = "!chat"

// commandHandler — текстовые команды самообслуживания в каналах.
// Тяжелая администрация (создание комнат, политики) живет в REST,
// здесь только привязка/отвязка своего канала.
type commandHandler struct {
	session *discordgo.Session
	gw      platform.Gateway
	mgr     *relay.Manager
	catMgr  *relay.CategoryManager
	log     zerolog.Logger
}

func newCommandHandler(session *discordgo.Session, gw platform.Gateway, mgr *relay.Manager, catMgr *relay.CategoryManager, log zerolog.Logger) *commandHandler {
	return &commandHandler{session: session, gw: gw, mgr: mgr, catMgr: catMgr, log: log}
}

// Handle возвращает true, если сообщение было командой
// и не должно уходить в ретрансляцию
func (h *commandHandler) Handle(ctx context.Context, msg *platform.Message) bool {
	if msg.Author.ID == "" || msg.Author.ID == h.gw.BotUserID() {
		return false
	}
	if !strings.HasPrefix(msg.Content, commandPrefix) {
		return false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(msg.Content, commandPrefix))
	parts := strings.SplitN(rest, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case "join":
		h.join(ctx, msg, arg)
	case "leave":
		h.leave(ctx, msg)
	case "sub":
		h.subscribe(ctx, msg, arg)
	case "unsub":
		h.unsubscribe(ctx, msg)
	case "help", "":
		h.reply(ctx, msg.ChannelID,
			"Commands: `!chat join <room>`, `!chat leave`, `!chat sub <category>`, `!chat unsub`")
	default:
		return false
	}
	return true
}

func (h *commandHandler) join(ctx context.Context, msg *platform.Message, roomName string) {
	if roomName == "" {
		h.reply(ctx, msg.ChannelID, "Usage: `!chat join <room>`")
		return
	}

	guildName, channelName := h.names(msg.GuildID, msg.ChannelID)

	room, err := h.mgr.RegisterChannel(ctx, relay.RegisterRequest{
		ActorID:     msg.Author.ID,
		GuildID:     msg.GuildID,
		ChannelID:   msg.ChannelID,
		GuildName:   guildName,
		ChannelName: channelName,
		RoomName:    roomName,
	})
	if err != nil {
		var notFound *relay.RoomNotFoundError
		switch {
		case errors.Is(err, relay.ErrNotAuthorized):
			h.reply(ctx, msg.ChannelID, "You need the Manage Channels permission to do that.")
		case errors.Is(err, relay.ErrRoomFull):
			h.reply(ctx, msg.ChannelID, "That room has reached its destination limit.")
		case errors.As(err, &notFound):
			if len(notFound.Available) == 0 {
				h.reply(ctx, msg.ChannelID, "No rooms exist yet.")
			} else {
				h.reply(ctx, msg.ChannelID, "Room not found. Did you mean: "+strings.Join(notFound.Available, ", ")+"?")
			}
		default:
			h.log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("join command failed")
			h.reply(ctx, msg.ChannelID, "Something went wrong, try again later.")
		}
		return
	}

	h.reply(ctx, msg.ChannelID, "This channel is now connected to **"+room.Name+"**.")
}

func (h *commandHandler) leave(ctx context.Context, msg *platform.Message) {
	ok, err := h.gw.CanManageChannels(ctx, msg.ChannelID, msg.Author.ID)
	if err != nil || !ok {
		h.reply(ctx, msg.ChannelID, "You need the Manage Channels permission to do that.")
		return
	}

	if err := h.mgr.UnregisterChannel(ctx, msg.GuildID, msg.ChannelID); err != nil {
		h.log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("leave command failed")
		h.reply(ctx, msg.ChannelID, "Something went wrong, try again later.")
		return
	}

	h.reply(ctx, msg.ChannelID, "This channel has been disconnected.")
}

func (h *commandHandler) subscribe(ctx context.Context, msg *platform.Message, name string) {
	if name == "" {
		h.reply(ctx, msg.ChannelID, "Usage: `!chat sub <category>`")
		return
	}

	guildName, channelName := h.names(msg.GuildID, msg.ChannelID)

	category, err := h.catMgr.Subscribe(ctx, msg.Author.ID, msg.GuildID, msg.ChannelID, guildName, channelName, name)
	if err != nil {
		if errors.Is(err, relay.ErrNotAuthorized) {
			h.reply(ctx, msg.ChannelID, "You need the Manage Channels permission to do that.")
			return
		}
		h.log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("sub command failed")
		h.reply(ctx, msg.ChannelID, "Something went wrong, try again later.")
		return
	}

	h.reply(ctx, msg.ChannelID, "This channel is now subscribed to **"+category.Name+"**.")
}

func (h *commandHandler) unsubscribe(ctx context.Context, msg *platform.Message) {
	ok, err := h.gw.CanManageChannels(ctx, msg.ChannelID, msg.Author.ID)
	if err != nil || !ok {
		h.reply(ctx, msg.ChannelID, "You need the Manage Channels permission to do that.")
		return
	}

	if err := h.catMgr.Unsubscribe(ctx, msg.GuildID, msg.ChannelID); err != nil {
		h.log.Error().Err(err).Str("channel_id", msg.ChannelID).Msg("unsub command failed")
		h.reply(ctx, msg.ChannelID, "Something went wrong, try again later.")
		return
	}

	h.reply(ctx, msg.ChannelID, "This channel has been unsubscribed.")
}

func (h *commandHandler) reply(ctx context.Context, channelID, text string) {
	if _, err := h.gw.SendMessage(ctx, channelID, text); err != nil {
		h.log.Debug().Err(err).Str("channel_id", channelID).Msg("command reply failed")
	}
}

// names подтягивает человекочитаемые имена для денормализации в привязке
func (h *commandHandler) names(guildID, channelID string) (string, string) {
	var guildName, channelName string

	if g, err := h.session.State.Guild(guildID); err == nil {
		guildName = g.Name
	} else if g, err := h.session.Guild(guildID); err == nil {
		guildName = g.Name
	}

	if c, err := h.session.State.Channel(channelID); err == nil {
		channelName = c.Name
	} else if c, err := h.session.Channel(channelID); err == nil {
		channelName = c.Name
	}

	return guildName, channelName
}
