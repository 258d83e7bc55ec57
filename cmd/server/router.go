package main

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/thereayou/globalchat/internal/handlers"
	"github.com/thereayou/globalchat/internal/middleware"
	"github.com/thereayou/globalchat/pkg/auth"
)

func APIEndpoints(r *gin.Engine, authH *handlers.AuthHandler, roomH *handlers.RoomHandler, wsH *handlers.WebSocketHandler, jwtMgr *auth.JWTManager, rdb *redis.Client) {
	// Auth endpoints
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// API endpoints
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtMgr, rdb))
	{
		api.GET("/rooms", roomH.ListRooms)
		api.POST("/rooms", roomH.CreateRoom)
		api.GET("/rooms/:id", roomH.GetRoom)
		api.DELETE("/rooms/:id", roomH.DeleteRoom)
		api.PATCH("/rooms/:id/permissions", roomH.UpdatePermission)
		api.POST("/rooms/:id/destinations", roomH.RegisterDestination)
		api.DELETE("/destinations", roomH.UnregisterDestination)
		api.GET("/rooms/:id/messages", roomH.GetRoomMessages)

		api.GET("/filter/words", roomH.ListBlockedWords)
		api.POST("/filter/words", roomH.AddBlockedWord)
		api.DELETE("/filter/words/:word", roomH.RemoveBlockedWord)

		api.GET("/categories", roomH.ListCategories)
	}

	// Живая лента
	r.GET("/ws", middleware.AuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
