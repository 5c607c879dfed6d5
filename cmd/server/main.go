package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smarlify/playful-hub/internal/analytics"
	"github.com/smarlify/playful-hub/internal/config"
	"github.com/smarlify/playful-hub/internal/display"
	"github.com/smarlify/playful-hub/internal/games"
	"github.com/smarlify/playful-hub/internal/handler"
	"github.com/smarlify/playful-hub/internal/identity"
	"github.com/smarlify/playful-hub/internal/kafka"
	"github.com/smarlify/playful-hub/internal/postgres"
	"github.com/smarlify/playful-hub/internal/records"
	"github.com/smarlify/playful-hub/internal/redis"
	"github.com/smarlify/playful-hub/internal/submission"
	"github.com/smarlify/playful-hub/internal/websocket"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis record store
	logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
	recordStore, err := redis.NewRecordStore(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer recordStore.Close()
	logger.Info("connected to Redis")

	// Initialize PostgreSQL leaderboard store
	logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	leaderboardStore, err := postgres.NewLeaderboardStore(&cfg.Postgres, logger)
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer leaderboardStore.Close()
	logger.Info("connected to PostgreSQL")

	// Run database migrations
	if err := leaderboardStore.RunMigrations(ctx); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize analytics sink
	var sink analytics.Sink = analytics.Nop{}
	var kafkaSink *kafka.Sink
	if cfg.Analytics.Enabled {
		logger.Info("initializing analytics sink",
			"brokers", cfg.Analytics.Brokers,
			"topic", cfg.Analytics.Topic,
		)
		kafkaSink, err = kafka.NewSink(&cfg.Analytics, identity.FromContext, logger)
		if err != nil {
			logger.Warn("failed to create analytics sink, continuing without analytics", "error", err)
		} else {
			sink = kafkaSink
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Wire the leaderboard core
	catalog := games.Default()
	evaluator := records.NewEvaluator(recordStore, logger)
	board := display.NewBoard(leaderboardStore, cfg.Leaderboard.DisplayLimit, logger)
	manager := submission.NewManager(evaluator, recordStore, leaderboardStore, sink, logger)

	// Push a fresh board to subscribed viewers after each submission
	manager.SetNotifier(func(game *games.Game) {
		wsHub.BroadcastLeaderboard(game.ID, board.Load(ctx, game))
	})

	// Initialize HTTP handler
	httpHandler := handler.NewHandler(catalog, board, manager, wsHub, sink, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Flush analytics
	if kafkaSink != nil {
		if err := kafkaSink.Close(); err != nil {
			logger.Error("failed to close analytics sink", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
