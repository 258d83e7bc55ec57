package relay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterChannelFuzzyName(t *testing.T) {
	mgr, db, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := mgr.CreateRoom(ctx, "PUBG Community", "admin", 25)
	require.NoError(t, err)
	_, err = mgr.CreateRoom(ctx, "Gaming Lounge", "admin", 25)
	require.NoError(t, err)

	room, err := mgr.RegisterChannel(ctx, RegisterRequest{
		GuildID:   "g1",
		ChannelID: "c1",
		RoomName:  "pubg comm",
	})
	require.NoError(t, err)
	assert.Equal(t, "pubg community", room.Name)

	roomID, err := db.IsDestinationRegistered("g1", "c1")
	require.NoError(t, err)
	assert.Equal(t, room.ID, roomID)
}

func TestRegisterChannelNotFound(t *testing.T) {
	mgr, _, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := mgr.CreateRoom(ctx, "Gaming Lounge", "admin", 25)
	require.NoError(t, err)

	_, err = mgr.RegisterChannel(ctx, RegisterRequest{
		GuildID:   "g1",
		ChannelID: "c1",
		RoomName:  "xyz",
	})

	var notFound *RoomNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "xyz", notFound.Input)
	assert.Equal(t, []string{"gaming lounge"}, notFound.Available)
}

func TestRegisterChannelSuggestionLimit(t *testing.T) {
	mgr, _, _ := newTestEnv(t)
	ctx := context.Background()

	for _, name := range []string{
		"alpha one", "beta two", "gamma three", "delta four", "epsilon five",
		"zeta six", "eta seven", "theta eight", "iota nine", "kappa ten",
	} {
		_, err := mgr.CreateRoom(ctx, name, "admin", 25)
		require.NoError(t, err)
	}

	_, err := mgr.RegisterChannel(ctx, RegisterRequest{
		GuildID:   "g1",
		ChannelID: "c1",
		RoomName:  "qqqq",
	})

	var notFound *RoomNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Len(t, notFound.Available, 8)
}

func TestRegisterChannelRoomFull(t *testing.T) {
	mgr, _, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := mgr.CreateRoom(ctx, "small room", "admin", 1)
	require.NoError(t, err)

	_, err = mgr.RegisterChannel(ctx, RegisterRequest{GuildID: "g1", ChannelID: "c1", RoomName: "small room"})
	require.NoError(t, err)

	_, err = mgr.RegisterChannel(ctx, RegisterRequest{GuildID: "g2", ChannelID: "c2", RoomName: "small room"})
	assert.ErrorIs(t, err, ErrRoomFull)

	// Перепривязка уже зарегистрированной пары не упирается в лимит
	_, err = mgr.RegisterChannel(ctx, RegisterRequest{GuildID: "g1", ChannelID: "c1", RoomName: "small room"})
	assert.NoError(t, err)
}

func TestRegisterChannelAuthorization(t *testing.T) {
	mgr, _, gw := newTestEnv(t)
	ctx := context.Background()

	_, err := mgr.CreateRoom(ctx, "gaming", "admin", 25)
	require.NoError(t, err)

	// Инициатор без Manage Channels
	_, err = mgr.RegisterChannel(ctx, RegisterRequest{
		ActorID:   "u1",
		GuildID:   "g1",
		ChannelID: "c1",
		RoomName:  "gaming",
	})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	gw.canManage["u1"] = true
	_, err = mgr.RegisterChannel(ctx, RegisterRequest{
		ActorID:   "u1",
		GuildID:   "g1",
		ChannelID: "c1",
		RoomName:  "gaming",
	})
	assert.NoError(t, err)
}

func TestUnregisterChannel(t *testing.T) {
	mgr, db, _ := newTestEnv(t)
	ctx := context.Background()

	_, err := mgr.CreateRoom(ctx, "gaming", "admin", 25)
	require.NoError(t, err)
	_, err = mgr.RegisterChannel(ctx, RegisterRequest{GuildID: "g1", ChannelID: "c1", RoomName: "gaming"})
	require.NoError(t, err)

	require.NoError(t, mgr.UnregisterChannel(ctx, "g1", "c1"))

	roomID, err := db.IsDestinationRegistered("g1", "c1")
	require.NoError(t, err)
	assert.Zero(t, roomID)
}

func TestDeactivateRoomStopsRelay(t *testing.T) {
	mgr, db, gw := newTestEnv(t)
	room := makeRoom(t, mgr, db, "gaming", 2)

	require.NoError(t, mgr.DeactivateRoom(context.Background(), room.ID))

	msg := testMessage("m1", "g1", "c1", "u1", "alice", "hello")
	require.NoError(t, mgr.HandleMessage(context.Background(), msg))
	assert.Empty(t, gw.sends)
}

func TestUpdatePermissionAuthorization(t *testing.T) {
	mgr, db, _ := newTestEnv(t)
	ctx := context.Background()

	room, err := mgr.CreateRoom(ctx, "gaming", "creator", 25)
	require.NoError(t, err)

	// Посторонний без админ-флага
	err = mgr.UpdatePermission(ctx, room.ID, "allow_urls", true, "stranger", false)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Создатель комнаты
	require.NoError(t, mgr.UpdatePermission(ctx, room.ID, "allow_urls", true, "creator", false))

	// Администратор
	require.NoError(t, mgr.UpdatePermission(ctx, room.ID, "rate_limit_seconds", 5, "stranger", true))

	perms, err := db.GetRoomPermissions(room.ID)
	require.NoError(t, err)
	assert.True(t, perms.AllowURLs)
	assert.Equal(t, 5, perms.RateLimitSeconds)
}
