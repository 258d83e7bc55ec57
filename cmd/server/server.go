package main

import (
	"context"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/thereayou/globalchat/internal/cache"
	"github.com/thereayou/globalchat/internal/database"
	"github.com/thereayou/globalchat/internal/filter"
	"github.com/thereayou/globalchat/internal/handlers"
	"github.com/thereayou/globalchat/internal/platform"
	"github.com/thereayou/globalchat/internal/platform/discord"
	"github.com/thereayou/globalchat/internal/relay"
	ws "github.com/thereayou/globalchat/internal/websocket"
	"github.com/thereayou/globalchat/pkg/auth"
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	Session    *discordgo.Session
	Hub        *ws.Hub
	JWTManager *auth.JWTManager

	log zerolog.Logger
}

func NewServer() *Server {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			// .env опционален: конфиг может прийти из окружения
		}
	}

	log := newLogger()

	dbConn := &database.Database{}
	if err := dbConn.Connect(); err != nil {
		log.Fatal().Err(err).Msg("postgres connect failed")
	}

	redisOpts, err := redis.ParseURL(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connect failed")
	}

	session, err := discordgo.New("Bot " + os.Getenv("DISCORD_TOKEN"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid DISCORD_TOKEN")
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent | discordgo.IntentsDirectMessages

	gw := discord.NewGateway(session, log)

	hub := ws.NewHub(log)
	go hub.Run()

	relayCache := cache.NewCache(rdb, cacheTTLFromEnv())
	contentFilter := filter.NewFilter()
	traffic := relay.NewTrafficState()

	cfg := relayConfigFromEnv()
	mgr := relay.NewManager(dbConn, relayCache, gw, contentFilter, traffic, hub, log, cfg)
	catMgr := relay.NewCategoryManager(dbConn, gw, contentFilter, log, cfg)

	cmds := newCommandHandler(session, gw, mgr, catMgr, log)

	gw.OnMessageCreate(func(ctx context.Context, msg *platform.Message) {
		if cmds.Handle(ctx, msg) {
			return
		}
		if err := mgr.HandleMessage(ctx, msg); err != nil {
			log.Error().Err(err).Str("message_id", msg.ID).Msg("relay failed")
		}
		if err := catMgr.HandleMessage(ctx, msg); err != nil {
			log.Error().Err(err).Str("message_id", msg.ID).Msg("category relay failed")
		}
	})

	jwtMgr := auth.NewJWTManager(
		os.Getenv("JWT_SECRET"),
		24*time.Hour,
	)

	authH := handlers.NewAuthHandler(dbConn, jwtMgr, rdb)
	roomH := handlers.NewRoomHandler(mgr, dbConn, hub, contentFilter)
	wsH := handlers.NewWebSocketHandler(hub)

	router := gin.Default()
	APIEndpoints(router, authH, roomH, wsH, jwtMgr, rdb)

	return &Server{
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		Session:    session,
		Hub:        hub,
		JWTManager: jwtMgr,
		log:        log,
	}
}

func (s *Server) Run() {
	if err := s.Session.Open(); err != nil {
		s.log.Fatal().Err(err).Msg("discord gateway open failed")
	}
	defer s.Session.Close()
	defer s.Hub.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	s.log.Info().Str("port", port).Msg("admin server starting")
	if err := s.Router.Run(":" + port); err != nil {
		s.log.Fatal().Err(err).Msg("server run error")
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
}

func relayConfigFromEnv() relay.Config {
	cfg := relay.DefaultConfig()
	if raw := os.Getenv("SEND_DELAY"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			cfg.SendDelay = d
		}
	}
	return cfg
}

func cacheTTLFromEnv() cache.TTLConfig {
	ttl := cache.DefaultTTL()
	if raw := os.Getenv("CACHE_BINDING_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ttl.Binding = d
		}
	}
	if raw := os.Getenv("CACHE_PERMISSIONS_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ttl.Permissions = d
		}
	}
	if raw := os.Getenv("CACHE_DESTINATIONS_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ttl.Destinations = d
		}
	}
	return ttl
}
