package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"wholesale/internal/api/handlers"
	"wholesale/internal/api/middleware"
	"wholesale/internal/config"
	"wholesale/internal/database"
	"wholesale/internal/logger"
	"wholesale/internal/reconciler"
	"wholesale/internal/store"
	"wholesale/internal/webhooks"

	"github.com/gin-gonic/gin"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, db *database.Database,
	commerce *store.Store, rec *reconciler.Reconciler, hooks *webhooks.Service) *Server {

	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS())

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(commerce, logger)
	cartHandler := handlers.NewCartHandler(commerce, logger)
	orderHandler := handlers.NewOrderHandler(commerce, logger)
	userHandler := handlers.NewUserHandler(commerce, logger)
	adminHandler := handlers.NewAdminHandler(db.DB, commerce, rec, logger)
	webhookHandler := handlers.NewWebhookHandler(hooks, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Catalog
		products := v1.Group("/products")
		{
			products.GET("", catalogHandler.List)
			products.GET("/:id", catalogHandler.Get)
		}
		v1.GET("/categories", catalogHandler.Categories)

		// Cart
		cart := v1.Group("/cart")
		{
			cart.GET("", cartHandler.Get)
			cart.POST("/items", cartHandler.AddItem)
			cart.PUT("/items/:id", cartHandler.UpdateItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
		}

		// Orders
		orders := v1.Group("/orders")
		{
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("", orderHandler.Create)
		}

		// Users
		v1.POST("/users/register", userHandler.Register)

		// Admin
		admin := v1.Group("/admin")
		{
			admin.POST("/sync/full", adminHandler.TriggerFullSync)
			admin.POST("/sync/incremental", adminHandler.TriggerIncrementalSync)
			admin.GET("/sync/runs", adminHandler.ListSyncRuns)
			admin.GET("/jobs", adminHandler.ListJobs)
			admin.POST("/jobs/:id/retry", adminHandler.RetryJob)
			admin.POST("/orders/:id/approve", adminHandler.ApproveOrder)
			admin.POST("/orders/:id/reject", adminHandler.RejectOrder)
			admin.PUT("/users/:id/status", adminHandler.SetUserStatus)
			admin.GET("/api-logs", adminHandler.ListAPILogs)
		}

		// Webhooks
		v1.POST("/webhooks/zoho/:kind", webhookHandler.Receive)
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     db,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
