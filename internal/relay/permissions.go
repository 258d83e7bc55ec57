package relay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thereayou/globalchat/internal/models"
	"github.com/thereayou/globalchat/internal/platform"
)

// PermissionManager проверяет право ретранслятора писать в канал
// и уведомляет регистранта канала о проблемах с доступом
type PermissionManager struct {
	gw  platform.Gateway
	log zerolog.Logger
}

func NewPermissionManager(gw platform.Gateway, log zerolog.Logger) *PermissionManager {
	return &PermissionManager{gw: gw, log: log}
}

// CanPostIn — живая проверка права отправки.
// Ошибка самой проверки трактуется как "можно": реальный запрет
// проявится при отправке и будет обработан там.
func (p *PermissionManager) CanPostIn(ctx context.Context, channelID string) bool {
	ok, err := p.gw.CanSendMessages(ctx, channelID)
	if err != nil {
		p.log.Debug().Err(err).Str("channel_id", channelID).Msg("permission check failed")
		return true
	}
	return ok
}

// NotifyRegistrant отправляет регистранту привязки личное сообщение
// о недостающем праве. Недоставка (закрытые DM) проглатывается —
// проблема одного получателя не должна влиять на рассылку.
func (p *PermissionManager) NotifyRegistrant(ctx context.Context, dest models.Destination, permission, roomName string) {
	text := fmt.Sprintf(
		"The relay could not deliver a message to #%s (%s) in room %q: missing the %q permission. "+
			"Please grant the permission to the bot or unregister the channel.",
		dest.ChannelName, dest.GuildName, roomName, permission,
	)

	if err := p.gw.SendDirectMessage(ctx, dest.RegisteredBy, text); err != nil {
		p.log.Debug().
			Err(err).
			Str("user_id", dest.RegisteredBy).
			Str("channel_id", dest.ChannelID).
			Msg("could not notify registrant")
	}
}
