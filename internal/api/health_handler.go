package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hardhatlabs/subscout/internal/database"
	"github.com/hardhatlabs/subscout/internal/research"
)

// PipelineHealthSource exposes pipeline monitoring data to the handler
type PipelineHealthSource interface {
	PipelineHealth() research.PipelineHealth
}

// HealthHandler handles health monitoring endpoints
type HealthHandler struct {
	db       *database.DB
	pipeline PipelineHealthSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, pipeline PipelineHealthSource) *HealthHandler {
	return &HealthHandler{
		db:       db,
		pipeline: pipeline,
	}
}

// GetSystemHealth reports overall system health
func (h *HealthHandler) GetSystemHealth(c *gin.Context) {
	healthy := true

	dbHealthy := true
	if err := h.db.HealthCheck(); err != nil {
		dbHealthy = false
		healthy = false
	}

	pipelineHealth := h.pipeline.PipelineHealth()
	if !pipelineHealth.IsHealthy {
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"healthy":         healthy,
		"timestamp":       time.Now().UTC(),
		"database":        gin.H{"healthy": dbHealthy, "stats": h.db.GetStats()},
		"pipeline_health": pipelineHealth,
	})
}

// GetPipelineHealth reports detailed research pipeline health
func (h *HealthHandler) GetPipelineHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"health_status": h.pipeline.PipelineHealth(),
	})
}
