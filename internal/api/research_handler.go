package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/auth"
	"github.com/hardhatlabs/subscout/internal/logger"
	"github.com/hardhatlabs/subscout/internal/models"
	"github.com/hardhatlabs/subscout/internal/repository"
	"github.com/hardhatlabs/subscout/internal/research"
)

// ResearchService is what the research handler needs from the pipeline
type ResearchService interface {
	StartJob(ctx context.Context, req repository.ResearchRequest, userID uuid.UUID) (*models.ResearchJob, error)
	GetJob(ctx context.Context, jobID uuid.UUID) (*models.ResearchJob, error)
	ListJobs(ctx context.Context, limit, offset int) ([]models.ResearchJob, error)
	WaitForJob(ctx context.Context, jobID uuid.UUID, timeout, pollInterval time.Duration) (*models.ResearchJob, error)
	GetRankedResults(ctx context.Context, jobID uuid.UUID) ([]repository.RankedResult, error)
	PipelineHealth() research.PipelineHealth
}

// ResearchHandler handles research job operations
type ResearchHandler struct {
	service ResearchService
	log     logger.Logger
}

// NewResearchHandler creates a new research handler
func NewResearchHandler(service ResearchService, log logger.Logger) *ResearchHandler {
	return &ResearchHandler{
		service: service,
		log:     log,
	}
}

// SubmitJob starts a research job and returns its ID for polling
func (h *ResearchHandler) SubmitJob(c *gin.Context) {
	var req repository.ResearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, exists := c.Get(auth.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	job, err := h.service.StartJob(c.Request.Context(), req, userID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.Info("Research job submitted", "job_id", job.ID.String(), "trade", job.Trade)

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": job.ID,
		"status": job.Status,
	})
}

// GetJob returns a research job's current state
func (h *ResearchHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Research job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobs returns recent research jobs
func (h *ResearchHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list research jobs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// GetResults returns ranked results for a job. Query parameters:
//   - wait: block until the job completes or the timeout passes (default true)
//   - timeout: maximum seconds to wait (default 60)
//   - poll_interval: polling cadence in seconds (default 1.0)
//
// A job still running at timeout returns 202 with its current status.
func (h *ResearchHandler) GetResults(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job ID"})
		return
	}

	wait := c.DefaultQuery("wait", "true") == "true"
	timeoutSec, err := strconv.Atoi(c.DefaultQuery("timeout", "60"))
	if err != nil || timeoutSec < 0 {
		timeoutSec = 60
	}
	pollSec, err := strconv.ParseFloat(c.DefaultQuery("poll_interval", "1.0"), 64)
	if err != nil || pollSec <= 0 {
		pollSec = 1.0
	}

	var job *models.ResearchJob
	if wait {
		job, err = h.service.WaitForJob(c.Request.Context(), jobID,
			time.Duration(timeoutSec)*time.Second,
			time.Duration(pollSec*float64(time.Second)))
	} else {
		job, err = h.service.GetJob(c.Request.Context(), jobID)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Research job not found"})
		return
	}

	switch job.Status {
	case string(models.ResearchJobFailed):
		c.JSON(http.StatusOK, gin.H{
			"status": "FAILED",
			"error":  job.ErrorMessage,
		})
		return
	case string(models.ResearchJobCompleted):
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "PENDING",
			"message": "Job is still " + job.Status,
		})
		return
	}

	results, err := h.service.GetRankedResults(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "SUCCEEDED",
		"results": results,
	})
}
