package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/cache"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/config"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/handler"
	"github.com/zainabubaker/Villages-Management-System/chat-history-service/internal/service"
	"github.com/zainabubaker/Villages-Management-System/pkg/jwt"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
	"github.com/zainabubaker/Villages-Management-System/pkg/middleware"
	"github.com/zainabubaker/Villages-Management-System/pkg/presence"
)

func main() {
	configPath := "./config"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log.Init(cfg.Log)
	l := log.L()

	// Initialize message store
	if !messagestore.SharedAcrossProcesses(cfg.Store.Driver) {
		l.Fatal().Str("driver", cfg.Store.Driver).Msg("message store driver cannot be shared with chat-service")
	}
	store, err := messagestore.New(cfg.Store, l)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to initialize message store")
	}
	defer store.Close()

	// Initialize Redis page cache and presence lookups
	var msgCache cache.MessageCache = cache.NoopCache{}
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisMessageCache(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Cache.Prefix)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to create redis cache")
		}
		msgCache = redisCache
	}
	defer msgCache.Close()

	// Read-only: this instance never announces anyone.
	directory, err := presence.New(cfg.Redis, "")
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create presence directory")
	}
	defer directory.Close()

	manager, err := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.AccessDuration, cfg.Auth.Issuer)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create jwt manager")
	}

	// Initialize service
	chatHistoryService := service.NewChatHistoryService(store, msgCache, directory, cfg.Cache.TTL)

	// Initialize HTTP handler
	httpHandler := handler.NewHTTPHandler(chatHistoryService, middleware.NewAuthMiddleware(manager))

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(l))

	httpHandler.RegisterRoutes(router)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		l.Info().Str("addr", addr).Msg("starting chat-history-service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("server exited")
}
