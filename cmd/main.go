package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-sync-service/internal/clients/moysklad"
	"catalog-sync-service/internal/config"
	"catalog-sync-service/internal/database"
	"catalog-sync-service/internal/events"
	"catalog-sync-service/internal/handlers"
	"catalog-sync-service/internal/middleware"
	"catalog-sync-service/internal/repository"
	"catalog-sync-service/internal/services"
)

func main() {
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Load()
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}
	logger.Info("Database models migrated")

	redisClient := connectRedis(cfg.RedisURL, logger)

	// MoySklad client
	var opts []moysklad.Option
	if cfg.MoySkladBaseURL != "" {
		opts = append(opts, moysklad.WithBaseURL(cfg.MoySkladBaseURL))
	}
	if cfg.RateLimitRPS > 0 {
		opts = append(opts, moysklad.WithRateLimit(cfg.RateLimitRPS))
	}
	erp := moysklad.NewClient(cfg.MoySkladToken, opts...)

	// Repositories
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	statusRepo := repository.NewSyncStatusRepository(db)

	// Services
	publisher := events.NewPublisher(redisClient, logger)
	recorder := services.NewStatusRecorder(statusRepo, publisher)

	syncConfig := services.DefaultSyncConfig()
	syncConfig.CategoryPageSize = cfg.CategoryPageSize
	syncConfig.ProductPageSize = cfg.ProductPageSize
	syncConfig.UpsertChunkSize = cfg.UpsertChunkSize
	syncConfig.DeleteChunkSize = cfg.DeleteChunkSize

	categorySync := services.NewCategorySyncService(erp, categoryRepo, recorder, syncConfig, logger)
	productSync := services.NewProductSyncService(erp, productRepo, categoryRepo, recorder, syncConfig, logger)
	catalogService := services.NewCatalogService(productRepo, categoryRepo, redisClient, logger)
	productSync.OnCatalogChanged(catalogService.InvalidateCache)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	syncHandler := handlers.NewSyncHandler(categorySync, productSync, recorder, catalogHandler)
	webhookHandler := handlers.NewWebhookHandler(productSync, logger)

	router := setupRouter(cfg, healthHandler, syncHandler, catalogHandler, webhookHandler)

	logger.WithFields(logrus.Fields{
		"port": cfg.Port,
		"env":  cfg.Environment,
	}).Info("Catalog sync service starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("Failed to start server")
	}
}

// connectRedis returns a ready Redis client or nil. Cache and status events
// are optional, the service runs without them.
func connectRedis(redisURL string, logger *logrus.Logger) *redis.Client {
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.WithError(err).Warn("Invalid REDIS_URL, continuing without Redis")
		return nil
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, continuing without Redis")
		return nil
	}
	logger.Info("Redis connected")
	return client
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	syncHandler *handlers.SyncHandler,
	catalogHandler *handlers.CatalogHandler,
	webhookHandler *handlers.WebhookHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	{
		// Sync triggers run with a deadline so a stuck upstream cannot hold
		// the request open forever.
		sync := v1.Group("/sync")
		sync.Use(withTimeout(cfg.SyncTimeout))
		{
			sync.POST("/categories", syncHandler.SyncCategories)
			sync.POST("/products", syncHandler.SyncProducts)
			sync.GET("/status", syncHandler.GetStatus)
		}

		// Storefront reads
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/products", catalogHandler.ListProducts)
			catalog.GET("/products/:id", catalogHandler.GetProduct)
			catalog.GET("/categories/tree", catalogHandler.GetCategoryTree)
		}

		// ERP webhooks
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/moysklad", webhookHandler.HandleMoySklad)
		}
	}

	return router
}

func withTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
