package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/perfilmente/funnel-api/internal/api"
	"github.com/perfilmente/funnel-api/internal/attribution"
	"github.com/perfilmente/funnel-api/internal/config"
	"github.com/perfilmente/funnel-api/internal/funnel"
	"github.com/perfilmente/funnel-api/internal/geo"
	"github.com/perfilmente/funnel-api/internal/server"
	"github.com/perfilmente/funnel-api/internal/storage"
	"github.com/perfilmente/funnel-api/internal/storage/memory"
	"github.com/perfilmente/funnel-api/internal/storage/sqldb"
	"github.com/perfilmente/funnel-api/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Initialize OpenTelemetry
	shutdownTracer, err := telemetry.InitTracer("funnel-api", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	storage.StartJanitor(ctx, store, time.Hour, logger)

	geoOpts := []geo.ClientOption{}
	if cfg.Geo.BaseURL != "" {
		geoOpts = append(geoOpts, geo.WithBaseURL(cfg.Geo.BaseURL))
	}
	geoClient := geo.NewClient(cfg.Geo.APIKey, geoOpts...)

	attrOpts := []attribution.ClientOption{}
	if cfg.Attribution.BaseURL != "" {
		attrOpts = append(attrOpts, attribution.WithBaseURL(cfg.Attribution.BaseURL))
	}
	attrClient := attribution.NewClient(cfg.Attribution.AccountID, cfg.Attribution.AccessToken, attrOpts...)
	if !attrClient.Enabled() {
		logger.Warn("attribution credentials missing, delivery disabled")
	}

	handlers := api.New(store, geoClient, attrClient, funnel.DefaultSteps(), cfg.Storage.TTL())

	srv := server.New(server.Options{
		Port:           cfg.Server.Port,
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		RequestTimeout: cfg.Server.Timeout(),
	}, logger)
	handlers.Routes(srv.Router)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server shutdown complete")
}

func newStore(cfg *config.Config) (storage.SessionStore, error) {
	switch cfg.Storage.Type {
	case "sqlite":
		path := cfg.Storage.SQLite.Path
		if path == "" {
			path = "./data/sessions.db"
		}
		return sqldb.New(path)
	default:
		return memory.New(), nil
	}
}
