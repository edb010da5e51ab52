package main

import (
	"database/sql"
	"log"
	"strings"

	"wholesale/internal/api"
	"wholesale/internal/config"
	"wholesale/internal/database"
	"wholesale/internal/events"
	"wholesale/internal/images"
	"wholesale/internal/logger"
	"wholesale/internal/reconciler"
	"wholesale/internal/services/zoho"
	"wholesale/internal/store"
	"wholesale/internal/webhooks"

	_ "github.com/lib/pq"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	defer logger.Sync()

	// Startup database reachability check before gorm takes over
	if !strings.HasPrefix(cfg.DatabaseURL, "sqlite://") {
		sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			if err := sqlDB.Ping(); err != nil {
				logger.Warn("database not reachable yet: %v", err)
			}
			sqlDB.Close()
		}
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Wire services
	zohoClient := zoho.NewClient(cfg, db.DB, logger)
	publisher := events.NewPublisher(cfg.KafkaBrokers, logger)
	defer publisher.Close()

	imageCache := images.NewCache(cfg.ImageCacheDir, zohoClient, db.DB, logger)
	imageQueue := images.NewQueue(imageCache, logger)

	rec := reconciler.New(db.DB, zohoClient, imageQueue, publisher, logger)
	hooks := webhooks.NewService(db.DB, imageQueue, publisher, cfg.WebhookSecret, logger)
	commerce := store.New(db.DB, logger, cfg.JobMaxAttempts)

	// Initialize API server
	server := api.New(cfg, logger, db, commerce, rec, hooks)

	// Start server
	logger.Info("Starting API server on port " + cfg.APIPort)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
