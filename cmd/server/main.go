package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-agent/internal/api"
	"github.com/bobby-s-dev/weather-agent/internal/app"
	"github.com/bobby-s-dev/weather-agent/internal/config"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Agent Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.Server.LogLevel == "debug" {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
			zap.ReplaceGlobals(logger)
		}
	}

	weatherApp, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}

	// Create Fiber app
	server := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  fiber.DefaultJSONEncoder,
		ErrorHandler: api.ErrorHandler,
	})

	// Setup handlers and routes
	api.SetupRoutes(server, weatherApp.Handler(), logger)

	// Start history retention
	weatherApp.Scheduler.Start()

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server",
			zap.String("address", addr),
			zap.Bool("agent_enabled", weatherApp.Agent != nil))

		if err := server.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	if err := weatherApp.Close(); err != nil {
		logger.Error("Failed to release resources", zap.Error(err))
	}

	logger.Info("Server stopped")
}
