package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/hewliyang/waze-traffic-api/internal/adapters/http"
	natsadapter "github.com/hewliyang/waze-traffic-api/internal/adapters/nats"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/postgres"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/valkey"
	"github.com/hewliyang/waze-traffic-api/internal/adapters/waze"
	"github.com/hewliyang/waze-traffic-api/internal/core/ports"
	"github.com/hewliyang/waze-traffic-api/internal/core/usecases"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/config"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/logging"
	"github.com/hewliyang/waze-traffic-api/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("waze-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Live map client
	opts, err := waze.OptionsFromConfig(cfg.Waze)
	if err != nil {
		log.Fatalf("waze config: %v", err)
	}
	maps := waze.New(opts)

	deps := &http.Dependencies{Version: version}

	// Database is optional: without it only the sample history is unavailable.
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		slog.Warn("database unavailable, sample history disabled", "error", err)
	} else {
		defer db.Close()
		deps.DB = db
		deps.Samples = usecases.NewSampleService(postgres.NewSampleRepo(db))
	}

	// Cache
	var cache ports.CacheService
	vc, err := valkey.New(cfg.Valkey.Addr, "waze:")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// Core NATS connection for the WebSocket relay
	nc, err := natsadapter.Connect(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, live feed disabled", "error", err)
	} else {
		defer nc.Drain()
		deps.NATS = nc
	}

	deps.Places = usecases.NewPlaceService(maps, cache)
	deps.Travel = usecases.NewTravelService(maps, cache, nil)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "Waze Traffic API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
