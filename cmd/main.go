package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/phamvuhoang/miskre/internal/catalog"
	"github.com/phamvuhoang/miskre/internal/checkout"
	"github.com/phamvuhoang/miskre/internal/email"
	"github.com/phamvuhoang/miskre/internal/handler"
	"github.com/phamvuhoang/miskre/internal/middleware"
	"github.com/phamvuhoang/miskre/internal/model"
	"github.com/phamvuhoang/miskre/internal/order"
	"github.com/phamvuhoang/miskre/internal/payment"
	"github.com/phamvuhoang/miskre/internal/seller"
	"github.com/phamvuhoang/miskre/internal/tenant"
	"github.com/phamvuhoang/miskre/pkg/config"
	"github.com/phamvuhoang/miskre/pkg/crypto"
	"github.com/phamvuhoang/miskre/pkg/database"
	"github.com/phamvuhoang/miskre/pkg/jwtutil"
	"github.com/phamvuhoang/miskre/pkg/logger"
	"github.com/phamvuhoang/miskre/pkg/metrics"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found or error loading: %v\n", err)
	}

	// Load configuration
	conf, err := config.Load("storefront")
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.InitLogger(&logger.LogConfig{
		Level:       conf.Log.Level,
		Environment: conf.Server.Env,
		ServiceName: conf.ServiceName,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	// Initialize database connection
	db, err := database.InitDB(&conf.DB)
	if err != nil {
		log.Fatal("Failed to initialize database")
	}

	// Run migrations
	if err := database.MigrateModels(&model.Seller{}, &model.Product{}, &model.Order{}, &model.OrderItem{}); err != nil {
		log.Fatal("Failed to migrate database models")
	}

	// PII field cipher
	cipher, err := crypto.NewFieldCipher(conf.Crypto.DataEncryptionKey)
	if err != nil {
		log.Fatal("Failed to initialize field cipher: " + err.Error())
	}

	// JWT utility for dashboard tokens
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      conf.JWT.SigningKey,
		ExpirationHours: conf.JWT.ExpirationHours,
	})

	// HTTP and checkout metrics
	httpMetrics := metrics.NewHTTPMetrics(conf.ServiceName)

	// Tenant resolution
	resolver := tenant.NewResolver(conf.Platform.Domain, conf.Platform.BaseURL)

	// Repositories and services
	sellerRepo := seller.NewRepository(db)
	orderRepo := order.NewRepository(db, cipher)
	paymentFactory := payment.NewFactory(conf.Stripe.APIKey)

	var emailProvider email.Provider = email.NopProvider{}
	if conf.Email.ResendAPIKey != "" {
		emailProvider = email.NewResendProvider(conf.Email.ResendAPIKey, conf.Email.From)
	}

	checkoutService := checkout.NewService(orderRepo, sellerRepo, paymentFactory, emailProvider, httpMetrics, conf.Platform.BaseURL)
	seeder := catalog.NewSeeder(db)

	// Handlers
	sellerHandler := handler.NewSellerHandler(sellerRepo, seeder, emailProvider, resolver, conf.Platform.AdminKey)
	productHandler := handler.NewProductHandler(db)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService)
	webhookHandler := handler.NewWebhookHandler(checkoutService, httpMetrics, conf.Stripe.WebhookSecret)
	orderHandler := handler.NewOrderHandler(orderRepo, checkoutService)
	authHandler := handler.NewAuthHandler(sellerRepo, jwt, conf.Platform.AdminKey)
	storeHandler := handler.NewStoreHandler(sellerRepo, db)

	// Initialize Echo framework
	e := echo.New()

	// Tenant resolution runs before routing so subdomain hosts land on the
	// /store/:subdomain routes
	e.Pre(resolver.Middleware())

	// Apply middleware
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(httpMetrics.Middleware())

	// Metrics and health endpoints
	e.GET("/metrics", echo.WrapHandler(metrics.GetPrometheusHandler()))
	e.GET("/health", handler.HealthCheck)

	// Storefront routes (tenant-scoped)
	e.GET("/store/:subdomain", storeHandler.GetStorefront)
	e.GET("/store/:subdomain/product/:id", storeHandler.GetStoreProduct)

	// Public API routes
	e.POST("/api/sellers", sellerHandler.CreateSeller)
	e.GET("/api/sellers", sellerHandler.GetSeller)
	e.GET("/api/products", productHandler.ListProducts)
	e.POST("/api/products", productHandler.CreateProduct)
	e.GET("/api/products/:id", productHandler.GetProduct)
	e.PUT("/api/products/:id", productHandler.UpdateProduct)
	e.DELETE("/api/products/:id", productHandler.DeleteProduct)
	e.POST("/api/checkout", checkoutHandler.CreateSession)
	e.POST("/api/checkout/cod", checkoutHandler.CreateCODOrder)
	e.POST("/api/stripe/webhook", webhookHandler.HandleStripeWebhook)
	e.POST("/api/auth/dashboard", authHandler.DashboardToken)

	// Dashboard routes - require authentication
	orders := e.Group("/api/orders")
	orders.Use(middleware.JWTAuthMiddleware(jwt))
	orders.GET("", orderHandler.ListOrders)
	orders.GET("/:id", orderHandler.GetOrder)
	orders.PATCH("/:id", orderHandler.UpdateOrderStatus)

	// Start server
	log.Info("Starting storefront on port " + conf.Server.Port)
	e.Logger.Fatal(e.Start(":" + conf.Server.Port))
}
