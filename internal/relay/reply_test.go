package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/globalchat/internal/format"
	"github.com/thereayou/globalchat/internal/models"
	"github.com/thereayou/globalchat/internal/platform"
)

func TestReplyExtractNotAReply(t *testing.T) {
	mgr, _, _ := newTestEnv(t)

	msg := testMessage("m1", "g1", "c1", "u1", "alice", "just a message")
	assert.Nil(t, mgr.replies.Extract(context.Background(), msg, 1))
}

func TestReplyExtractFromStore(t *testing.T) {
	mgr, db, _ := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	require.NoError(t, db.LogMessage(&models.RelayedMessage{
		MessageID: "orig",
		RoomID:    room.ID,
		GuildID:   "g1",
		ChannelID: "c1",
		UserID:    "u1",
		Username:  "alice",
		Content:   "original content",
	}))

	msg := testMessage("m2", "g2", "c2", "u2", "bob", "a reply")
	msg.Reference = &platform.Reference{MessageID: "orig"}

	data := mgr.replies.Extract(context.Background(), msg, room.ID)
	require.NotNil(t, data)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "original content", data.Content)
	assert.Equal(t, "u1", data.UserID)
}

func TestReplyExtractFromReferencedHuman(t *testing.T) {
	mgr, db, _ := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	// Журнал пуст: платформа уже разрешила ссылку
	msg := testMessage("m2", "g1", "c1", "u2", "bob", "a reply")
	msg.Reference = &platform.Reference{MessageID: "unknown"}
	msg.ReferencedMessage = testMessage("unknown", "g1", "c1", "u1", "alice", "live content")

	data := mgr.replies.Extract(context.Background(), msg, room.ID)
	require.NotNil(t, data)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "live content", data.Content)
}

func TestReplyExtractFromLiveFetch(t *testing.T) {
	mgr, db, gw := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	gw.fetched["unknown"] = testMessage("unknown", "g1", "c1", "u1", "alice", "fetched content")

	msg := testMessage("m2", "g1", "c1", "u2", "bob", "a reply")
	msg.Reference = &platform.Reference{ChannelID: "c1", MessageID: "unknown"}

	data := mgr.replies.Extract(context.Background(), msg, room.ID)
	require.NotNil(t, data)
	assert.Equal(t, "fetched content", data.Content)
}

// Ответ на сообщение самого ретранслятора: автор восстанавливается
// разбором проводного формата, имя — живым запросом
func TestReplyExtractFromBotMessage(t *testing.T) {
	mgr, db, gw := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	gw.users["u1"] = &platform.Author{ID: "u1", Username: "alice"}

	wire := format.FormatRelayedMessage("g1", "c1", "orig", "u1", "relayed text", nil, "")
	msg := testMessage("m2", "g2", "c2", "u2", "bob", "a reply")
	msg.Reference = &platform.Reference{MessageID: "bot-msg"}
	msg.ReferencedMessage = testMessage("bot-msg", "g2", "c2", "bot-id", "relay", wire)

	data := mgr.replies.Extract(context.Background(), msg, room.ID)
	require.NotNil(t, data)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, "relayed text", data.Content)
	assert.Equal(t, "u1", data.UserID)
}

func TestReplyExtractAttachmentOnly(t *testing.T) {
	mgr, db, _ := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	referenced := testMessage("unknown", "g1", "c1", "u1", "alice", "")
	referenced.Attachments = []platform.Attachment{{URL: "u", Filename: "photo.png", ContentType: "image/png"}}

	msg := testMessage("m2", "g1", "c1", "u2", "bob", "a reply")
	msg.Reference = &platform.Reference{MessageID: "unknown"}
	msg.ReferencedMessage = referenced

	data := mgr.replies.Extract(context.Background(), msg, room.ID)
	require.NotNil(t, data)
	assert.Equal(t, "[Attachment: photo.png]", data.Content)
}

func TestReplyExtractEmbedOnly(t *testing.T) {
	mgr, db, _ := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	referenced := testMessage("unknown", "g1", "c1", "u1", "alice", "")
	referenced.Embeds = []platform.Embed{{Description: "embed description"}}

	msg := testMessage("m2", "g1", "c1", "u2", "bob", "a reply")
	msg.Reference = &platform.Reference{MessageID: "unknown"}
	msg.ReferencedMessage = referenced

	data := mgr.replies.Extract(context.Background(), msg, room.ID)
	require.NotNil(t, data)
	assert.Equal(t, "embed description", data.Content)
}

func TestReplyExtractFallback(t *testing.T) {
	mgr, db, gw := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	gw.fetchErr = errors.New("gateway down")

	msg := testMessage("m2", "g1", "c1", "u2", "bob", "a reply")
	msg.Reference = &platform.Reference{MessageID: "long-gone"}

	// Разрешение деградирует до заглушки, но не падает
	data := mgr.replies.Extract(context.Background(), msg, room.ID)
	require.NotNil(t, data)
	assert.Equal(t, "Unknown User", data.Username)
	assert.Equal(t, "[Message not found]", data.Content)
}
