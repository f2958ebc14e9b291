package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nbenali/skillswap/internal/auth"
	"github.com/nbenali/skillswap/internal/chat"
	"github.com/nbenali/skillswap/internal/config"
	"github.com/nbenali/skillswap/internal/notification"
	"github.com/nbenali/skillswap/internal/request"
	"github.com/nbenali/skillswap/internal/server"
	"github.com/nbenali/skillswap/internal/skill"
	"github.com/nbenali/skillswap/internal/storage/postgres"
	"github.com/nbenali/skillswap/internal/user"
	"github.com/nbenali/skillswap/pkg/logger"
)

func main() {
	// Initializing and validating config
	cm, err := config.NewConfigManager("internal/config/config.yaml")
	if err != nil {
		fmt.Printf("Error getting config file: %v", err)
		os.Exit(1)
	}
	c := cm.GetConfig()
	if err := c.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	// Initializing logger
	log, err := logger.New(logger.Config{
		Env:       c.GeneralParams.Env,
		AddSource: false,
	})
	if err != nil {
		fmt.Printf("Error creating logger: %v", err)
		os.Exit(1)
	}

	log.Info(
		"Config loaded successfully!",
		"env", c.GeneralParams.Env,
		"http_server_port", c.HttpServerParams.Port,
		"http_server_address", c.HttpServerParams.Address,
		"database", c.MainDBParams.Name,
	)

	// Global context with cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Creating database connection and applying the schema
	pool, err := postgres.NewPool(ctx, c.MainDBParams.GetDSN())
	if err != nil {
		log.Error(
			"Failed to create postgres pool",
			"error", err,
			"db", c.MainDBParams.Name,
		)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Error("Failed to apply database schema", "error", err)
		os.Exit(1)
	}

	log.Info("Database connection established", "db", c.MainDBParams.Name)

	// Stores
	userStore := user.NewPostgresStore(pool)
	skillStore := skill.NewPostgresStore(pool)
	requestStore := request.NewPostgresStore(pool)
	notificationStore := notification.NewPostgresStore(pool)
	chatStore := chat.NewPostgresStore(pool)

	// JWT Service initialization
	authService := auth.NewService(c.GeneralParams.SecretKey, time.Minute*15)

	// Domain services and handlers
	notifier := notification.NewStoreNotifier(notificationStore)
	requestService := request.NewService(requestStore, skillStore, notifier, log.Logger)
	requestHandler := request.NewHandler(requestService, log.Logger, 0)
	notificationHandler := notification.NewHandler(notificationStore, log.Logger, 0)

	// Realtime gateway. The presence registry starts empty, which is
	// exactly the reset a fresh process needs.
	gateway := chat.NewGateway(chatStore, chat.NewRegistry(), log.Logger)
	chatHandler := chat.NewHandler(gateway, authService, userStore, log.Logger)

	router := server.NewRouter(server.RouterConfig{
		RequestHandler:      requestHandler,
		NotificationHandler: notificationHandler,
		ChatHandler:         chatHandler,
		AuthService:         authService,
		Log:                 log.Logger,
	})

	httpServer := server.New(c.HttpServerParams.GetAddress(), router, log.Logger)

	serverErrors := make(chan error, 1)

	go func() {
		serverErrors <- httpServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or error
	select {
	case err := <-serverErrors:
		log.Error("Server error", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("Graceful shutdown failed", "error", err)
		}
	}
}
