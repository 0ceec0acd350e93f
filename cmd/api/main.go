package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go-paper-orders/internal/bootstrap"
	"go-paper-orders/internal/config"
	"go-paper-orders/internal/handler"
	"go-paper-orders/internal/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, found := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	zl, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer zl.Sync()
	if !found {
		zl.Warn(".env file not found, using process environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. WebSocket hub
	hub := ws.NewHub(zl)
	go hub.Run(ctx)

	// 3. Database, seed data and services
	app, err := bootstrap.New(ctx, cfg, hub, zl)
	if err != nil {
		zl.Fatal("failed to start", zap.Error(err))
	}
	defer app.Close()

	seeded, err := app.Seed(ctx, cfg)
	if err != nil {
		zl.Fatal("failed to seed inventory", zap.Error(err))
	}
	if !seeded.Skipped {
		zl.Info("initial inventory stocked", zap.Strings("items", seeded.Items))
	}

	// 4. Fiber
	server := fiber.New(fiber.Config{
		AppName: "Paper Orders v1.0",
	})
	server.Use(logger.New())
	server.Use(recover.New())
	server.Use(cors.New())

	handler.SetupRoutes(server, app.Handlers(zl), []byte(cfg.JWTSecret), hub)

	// 5. Graceful shutdown
	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			zl.Panic("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	if err := server.Shutdown(); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}
	cancel()
	zl.Info("server exited")
}
