package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thereayou/globalchat/internal/database"
	"github.com/thereayou/globalchat/internal/filter"
	"github.com/thereayou/globalchat/internal/middleware"
	"github.com/thereayou/globalchat/internal/platform"
	"github.com/thereayou/globalchat/internal/relay"
	ws "github.com/thereayou/globalchat/internal/websocket"
)

// stubGateway — заглушка платформы для тестов REST-слоя
type stubGateway struct{}

func (stubGateway) SendMessage(context.Context, string, string) (string, error) { return "id", nil }
func (stubGateway) AddReaction(context.Context, string, string, string) error   { return nil }
func (stubGateway) SendDirectMessage(context.Context, string, string) error     { return nil }
func (stubGateway) FetchMessage(context.Context, string, string) (*platform.Message, error) {
	return nil, platform.ErrNotFound
}
func (stubGateway) ResolveUser(context.Context, string) (*platform.Author, error) {
	return nil, platform.ErrNotFound
}
func (stubGateway) CanSendMessages(context.Context, string) (bool, error)        { return true, nil }
func (stubGateway) CanManageChannels(context.Context, string, string) (bool, error) { return true, nil }
func (stubGateway) BotUserID() string                                            { return "bot-id" }

func setupRoomRouter(t *testing.T) (*gin.Engine, *database.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(gdb))
	db := database.NewDatabase(gdb)

	cfg := relay.DefaultConfig()
	cfg.SendDelay = 0

	hub := ws.NewHub(zerolog.Nop())
	f := filter.NewFilter()
	mgr := relay.NewManager(db, nil, stubGateway{}, f, relay.NewTrafficState(), hub, zerolog.Nop(), cfg)
	roomH := NewRoomHandler(mgr, db, hub, f)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UsernameKey, "tester")
	})
	r.GET("/rooms", roomH.ListRooms)
	r.POST("/rooms", roomH.CreateRoom)
	r.GET("/rooms/:id", roomH.GetRoom)
	r.DELETE("/rooms/:id", roomH.DeleteRoom)
	r.PATCH("/rooms/:id/permissions", roomH.UpdatePermission)
	r.POST("/rooms/:id/destinations", roomH.RegisterDestination)

	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndListRooms(t *testing.T) {
	r, _ := setupRoomRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms", map[string]interface{}{"name": "Gaming Lounge"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Дубликат по нормализованному имени
	w = doJSON(t, r, http.MethodPost, "/rooms", map[string]interface{}{"name": "gaming LOUNGE"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/rooms", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rooms []struct {
			Name         string `json:"name"`
			Destinations int64  `json:"destinations"`
		} `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rooms, 1)
	assert.Equal(t, "gaming lounge", resp.Rooms[0].Name)
}

func TestGetRoomDetails(t *testing.T) {
	r, _ := setupRoomRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms", map[string]interface{}{"name": "gaming"})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPost, "/rooms/1/destinations", map[string]interface{}{
		"guild_id":   "g1",
		"channel_id": "c1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/rooms/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Name        string `json:"name"`
		Permissions struct {
			AllowURLs        bool `json:"allow_urls"`
			MaxMessageLength int  `json:"max_message_length"`
		} `json:"permissions"`
		Destinations []struct {
			ChannelID string `json:"channel_id"`
		} `json:"destinations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "gaming", resp.Name)
	assert.False(t, resp.Permissions.AllowURLs)
	assert.Equal(t, 1000, resp.Permissions.MaxMessageLength)
	require.Len(t, resp.Destinations, 1)
	assert.Equal(t, "c1", resp.Destinations[0].ChannelID)

	w = doJSON(t, r, http.MethodGet, "/rooms/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePermissionEndpoint(t *testing.T) {
	r, db := setupRoomRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms", map[string]interface{}{"name": "gaming"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/rooms/1/permissions", map[string]interface{}{
		"field": "allow_urls",
		"value": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	perms, err := db.GetRoomPermissions(1)
	require.NoError(t, err)
	assert.True(t, perms.AllowURLs)
	assert.Equal(t, "tester", perms.UpdatedBy)

	// Поле вне белого списка
	w = doJSON(t, r, http.MethodPatch, "/rooms/1/permissions", map[string]interface{}{
		"field": "room_id",
		"value": 99,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRoomEndpoint(t *testing.T) {
	r, db := setupRoomRouter(t)

	w := doJSON(t, r, http.MethodPost, "/rooms", map[string]interface{}{"name": "gaming"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/rooms/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	rooms, err := db.GetAllRooms()
	require.NoError(t, err)
	assert.Empty(t, rooms)

	w = doJSON(t, r, http.MethodDelete, "/rooms/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
