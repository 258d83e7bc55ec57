package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thereayou/globalchat/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCache(rdb, DefaultTTL()), mr
}

func TestChannelBinding(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	_, ok := c.RoomIDForChannel(ctx, "g1", "c1")
	assert.False(t, ok)

	c.SetRoomIDForChannel(ctx, "g1", "c1", 42)

	roomID, ok := c.RoomIDForChannel(ctx, "g1", "c1")
	assert.True(t, ok)
	assert.Equal(t, uint(42), roomID)

	c.InvalidateChannel(ctx, "g1", "c1")
	_, ok = c.RoomIDForChannel(ctx, "g1", "c1")
	assert.False(t, ok)
}

func TestPermissionsRoundTrip(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	perm := models.DefaultPermission(7)
	perm.AllowURLs = true
	perm.MaxMessageLength = 500

	c.SetPermissions(ctx, 7, perm)

	got, ok := c.Permissions(ctx, 7)
	require.True(t, ok)
	assert.True(t, got.AllowURLs)
	assert.Equal(t, 500, got.MaxMessageLength)
	assert.Equal(t, 3, got.RateLimitSeconds)
}

func TestDestinationsRoundTrip(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	dests := []models.Destination{
		{RoomID: 7, GuildID: "g1", ChannelID: "c1", RegisteredBy: "u1"},
		{RoomID: 7, GuildID: "g2", ChannelID: "c2", RegisteredBy: "u2"},
	}
	c.SetDestinations(ctx, 7, dests)

	got, ok := c.Destinations(ctx, 7)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "c2", got[1].ChannelID)
}

func TestInvalidateRoom(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	c.SetPermissions(ctx, 7, models.DefaultPermission(7))
	c.SetDestinations(ctx, 7, []models.Destination{{RoomID: 7, GuildID: "g1", ChannelID: "c1"}})

	c.InvalidateRoom(ctx, 7)

	_, ok := c.Permissions(ctx, 7)
	assert.False(t, ok)
	_, ok = c.Destinations(ctx, 7)
	assert.False(t, ok)
}

func TestUsernameCache(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	_, ok := c.Username(ctx, "42")
	assert.False(t, ok)

	c.SetUsername(ctx, "42", "alice")

	name, ok := c.Username(ctx, "42")
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	// Запись истекает по TTL
	mr.FastForward(DefaultTTL().Username + time.Minute)
	_, ok = c.Username(ctx, "42")
	assert.False(t, ok)
}
