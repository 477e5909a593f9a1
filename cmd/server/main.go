package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hardhatlabs/subscout/internal/api"
	"github.com/hardhatlabs/subscout/internal/database"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/middleware"
	"github.com/hardhatlabs/subscout/pkg/config"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize configuration
	cfg := config.New()
	appLogger := logger.NewSimpleLogger()

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		log.Fatal("Failed to set trusted proxies:", err)
	}

	// Add security middleware
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware())

	// Add rate limiting in production
	if cfg.EnableRateLimit && cfg.IsSecurityEnabled() {
		r.Use(middleware.RateLimitingMiddleware())
	}

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Setup API routes
	if err := api.SetupRoutes(r, db.DB, cfg, appLogger); err != nil {
		log.Fatal("Failed to setup API routes:", err)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
