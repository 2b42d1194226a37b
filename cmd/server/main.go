package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/bullsgame/internal/api"
	"github.com/mcoot/bullsgame/internal/api/socket"
	"github.com/mcoot/bullsgame/internal/config"
	"github.com/mcoot/bullsgame/internal/factory"
	redisstorage "github.com/mcoot/bullsgame/internal/storage/redis"
)

func main() {
	// Load configuration from the environment and an optional .env file
	conf, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: conf.LogLevel,
	}))
	slog.SetDefault(logger)

	// Build factory config
	cfg := factory.Config{
		Logger:      logger,
		StorageType: conf.StorageType,
		Room:        &conf.Room,
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = conf.RedisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	socketServer := socket.NewServer(app.Registry, socket.DefaultConfig(), logger)

	router := api.NewRouter(api.RouterConfig{
		Logger: logger,
		Rooms:  app.Registry,
		Rounds: app.Recorder,
		Socket: socketServer,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = conf.Port
	server := api.NewServer(router, socketServer, serverConfig, logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		_ = app.Close()
		os.Exit(1)
	}

	// Serve in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", conf.StorageType),
		slog.Int("guess_limit", conf.Room.GuessLimit),
		slog.Bool("unique_digits", conf.Room.UniqueDigits))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
		socketServer.Close()
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("failed to close application", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}
