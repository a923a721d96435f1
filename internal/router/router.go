// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pricepulse/pricepulse-backend/internal/config"
	"github.com/pricepulse/pricepulse-backend/internal/handlers"
	"github.com/pricepulse/pricepulse-backend/internal/hub"
	"github.com/pricepulse/pricepulse-backend/internal/middleware"
	"github.com/pricepulse/pricepulse-backend/internal/services"
	"github.com/pricepulse/pricepulse-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	priceHub := hub.New()
	shopifyService := services.NewShopifyService(cfg.Shopify)
	ledgerService := services.NewLedgerService(db)
	payoutService := services.NewPayoutService(db, cfg)
	pricingService := services.NewPricingService(db, ledgerService, shopifyService, priceHub, payoutService)
	productService := services.NewProductService(db, shopifyService)
	webhookService := services.NewWebhookService(pricingService, cfg.Shopify.WebhookSecret)
	archiveService := services.NewArchiveService(cfg, productService)
	authService := services.NewAuthService(cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, archiveService)
	purchaseHandler := handlers.NewPurchaseHandler(pricingService)
	cashoutHandler := handlers.NewCashoutHandler(pricingService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	transactionHandler := handlers.NewTransactionHandler(ledgerService)
	feedHandler := handlers.NewFeedHandler(priceHub, productService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
		}

		// Product routes
		products := v1.Group("/products")
		{
			products.GET("", productHandler.ListProducts)
			products.GET("/:id", productHandler.GetProduct)
			products.GET("/:id/history", productHandler.GetPriceHistory)
			products.GET("/:id/feed", feedHandler.PriceFeed)

			products.POST("", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.CreateProduct)
			products.PUT("/:id", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.UpdateProduct)
			products.POST("/sync", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.SyncCatalog)
			products.POST("/:id/history/export", middleware.AuthRequired(), middleware.AdminRequired(), productHandler.ExportPriceHistory)
		}

		// Purchase and cashout routes
		v1.POST("/purchase", purchaseHandler.ProcessPurchase)
		v1.POST("/cashout", cashoutHandler.ProcessCashout)

		// Shopify webhook routes (authenticated by HMAC signature)
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/order-created", webhookHandler.OrderCreated)
			webhooks.POST("/order-updated", webhookHandler.OrderUpdated)
			webhooks.POST("/order-paid", webhookHandler.OrderPaid)
		}

		// Admin routes
		v1.GET("/transactions", middleware.AuthRequired(), middleware.AdminRequired(), transactionHandler.ListTransactions)
	}

	return r
}
