package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"wholesale/internal/config"
	"wholesale/internal/database"
	"wholesale/internal/events"
	"wholesale/internal/images"
	"wholesale/internal/jobs"
	"wholesale/internal/logger"
	"wholesale/internal/reconciler"
	"wholesale/internal/services/zoho"

	"github.com/robfig/cron/v3"
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
	jobProcessor := jobs.NewProcessor(db.DB, zohoClient, logger)

	// Periodic work: incremental sync on an interval, full sync plus the
	// category/price passes nightly, job drain every minute. The sync and
	// job schedules are deliberately uncoordinated; all catalog writes are
	// upserts keyed by remote ids.
	sched := cron.New()

	_, err = sched.AddFunc(fmt.Sprintf("@every %dm", cfg.SyncIntervalMinutes), func() {
		if _, err := rec.RunIncremental(context.Background(), "scheduled"); err != nil {
			logger.Error("incremental sync failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatal("Failed to schedule incremental sync: %v", err)
	}

	_, err = sched.AddFunc(cfg.FullSyncCron, func() {
		ctx := context.Background()
		if _, err := rec.RunFull(ctx, "scheduled"); err != nil {
			logger.Error("full sync failed: %v", err)
		}
		if _, err := rec.SyncCategories(ctx, "scheduled"); err != nil {
			logger.Error("category sync failed: %v", err)
		}
		if _, err := rec.SyncPriceLists(ctx, "scheduled"); err != nil {
			logger.Error("price list sync failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatal("Failed to schedule full sync: %v", err)
	}

	_, err = sched.AddFunc("@every 1m", func() {
		completed, failed, err := jobProcessor.ProcessQueue(context.Background())
		if err != nil {
			logger.Error("job queue drain failed: %v", err)
			return
		}
		if completed+failed > 0 {
			logger.Info("job queue drained: completed=%d failed=%d", completed, failed)
		}
	})
	if err != nil {
		logger.Fatal("Failed to schedule job drain: %v", err)
	}

	sched.Start()
	logger.Info("Worker started")

	// Catalog events consumer warms the image cache
	var consumer *events.Consumer
	if cfg.KafkaBrokers != "" {
		processor := events.NewProcessor(imageQueue, logger)
		consumer = events.NewConsumer(cfg.KafkaBrokers, processor, logger)
		go consumer.Start()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	sched.Stop()
	if consumer != nil {
		consumer.Stop()
	}
	imageQueue.Wait()
}
