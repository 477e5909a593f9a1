package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/hardhatlabs/subscout/internal/auth"
	"github.com/hardhatlabs/subscout/internal/database"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/research"
	"github.com/hardhatlabs/subscout/internal/services"
	"github.com/hardhatlabs/subscout/pkg/config"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, db *sql.DB, cfg *config.Config, log logger.Logger) error {
	dbWrapper := &database.DB{DB: db}

	researchService := research.NewService(dbWrapper, cfg, log)
	svcs := services.NewServices(db, cfg)

	authHandler := NewAuthHandler(svcs.Auth)
	researchHandler := NewResearchHandler(researchService, log)
	scoringHandler := NewScoringHandler(svcs.Scoring)
	healthHandler := NewHealthHandler(dbWrapper, researchService)

	// Public routes
	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/refresh", authHandler.RefreshToken)
		public.POST("/auth/logout", authHandler.Logout)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	protected.Use(auth.CSRFMiddleware())
	{
		// Research pipeline endpoints
		protected.POST("/research-jobs", researchHandler.SubmitJob)
		protected.GET("/research-jobs", researchHandler.ListJobs)
		protected.GET("/research-jobs/:id", researchHandler.GetJob)
		protected.GET("/results/:id", researchHandler.GetResults)

		// Scoring endpoints
		protected.POST("/scoring/rank", scoringHandler.RankCandidates)
		protected.POST("/scoring/rank-stored", scoringHandler.RankStored)
		protected.GET("/scoring/config", scoringHandler.GetConfig)

		// Health monitoring endpoints
		protected.GET("/health", healthHandler.GetSystemHealth)
		protected.GET("/health/pipeline", healthHandler.GetPipelineHealth)
	}

	return nil
}
