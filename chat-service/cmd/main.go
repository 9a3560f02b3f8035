package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/config"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/handler"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/hub"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/kafka"
	"github.com/zainabubaker/Villages-Management-System/chat-service/internal/service"
	"github.com/zainabubaker/Villages-Management-System/pkg/jwt"
	"github.com/zainabubaker/Villages-Management-System/pkg/log"
	"github.com/zainabubaker/Villages-Management-System/pkg/messagestore"
	"github.com/zainabubaker/Villages-Management-System/pkg/presence"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := log.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Init(cfg.Log)
	l := log.L()

	l.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat service")

	// Initialize message store
	store, err := messagestore.New(cfg.Store, l)
	if err != nil {
		l.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to initialize message store")
	}
	defer store.Close()
	l.Info().Str("driver", cfg.Store.Driver).Msg("message store ready")

	// Initialize presence directory
	directory, err := presence.New(cfg.Redis, cfg.Server.AdvertiseAddress)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize presence directory")
	}
	defer directory.Close()

	// Initialize Kafka producer
	var producer kafka.MessageProducer = kafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		cp, err := kafka.NewConfluentProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to initialize kafka producer")
		}
		producer = cp
		l.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("connected to kafka")
	}

	// Identity resolver, only consulted when login tokens are required
	var resolver jwt.Resolver
	if cfg.Auth.Secret != "" {
		manager, err := jwt.NewManager(cfg.Auth.Secret, cfg.Auth.AccessDuration, cfg.Auth.Issuer)
		if err != nil {
			l.Fatal().Err(err).Msg("failed to create jwt manager")
		}
		resolver = manager
	} else if cfg.Auth.RequireLoginToken {
		l.Fatal().Msg("auth.require_login_token is set but auth.secret is empty")
	}

	wsHub := hub.NewHub()

	chatSvc := service.NewChatService(wsHub, store, producer, directory, resolver, service.Options{
		RequireLoginToken: cfg.Auth.RequireLoginToken,
		HandleTimeout:     cfg.WebSocket.HandleTimeout,
	})

	// Start service (heartbeat)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := chatSvc.Start(ctx); err != nil {
		l.Fatal().Err(err).Msg("failed to start chat service")
	}
	defer chatSvc.Stop()

	// Setup HTTP server
	router := mux.NewRouter()
	router.Use(log.HTTPMiddleware(l))
	handler.NewWSHandler(wsHub, chatSvc, cfg.WebSocket).RegisterRoutes(router)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		l.Info().Str("addr", server.Addr).Msg("chat service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info().Msg("shutting down chat service")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
	}

	l.Info().Msg("chat service stopped")
}
