package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hardhatlabs/subscout/internal/repository"
	"github.com/hardhatlabs/subscout/internal/scoring"
	"github.com/hardhatlabs/subscout/internal/services"
)

// ScoringHandler handles scoring operations
type ScoringHandler struct {
	scoringService services.ScoringService
}

// NewScoringHandler creates a new scoring handler with service injection
func NewScoringHandler(scoringService services.ScoringService) *ScoringHandler {
	return &ScoringHandler{
		scoringService: scoringService,
	}
}

// RankRequest represents a request to score an ad-hoc candidate batch
type RankRequest struct {
	Candidates []scoring.Candidate `json:"candidates" binding:"required"`
	MinBond    int64               `json:"min_bond" binding:"required,gt=0"`
	City       string              `json:"city"`
	State      string              `json:"state" binding:"required,len=2"`
	Weights    *scoring.Weights    `json:"weights,omitempty"`
}

// RankStoredRequest represents a request to score stored contractors
type RankStoredRequest struct {
	MinBond int64            `json:"min_bond" binding:"required,gt=0"`
	City    string           `json:"city"`
	State   string           `json:"state" binding:"required,len=2"`
	Weights *scoring.Weights `json:"weights,omitempty"`
	Limit   int              `json:"limit"`
}

// RankCandidates scores a candidate batch supplied in the request body
func (h *ScoringHandler) RankCandidates(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	cfg, err := h.scoringService.BuildConfig(req.MinBond, req.City, req.State, req.Weights)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ranked, err := h.scoringService.RankCandidates(req.Candidates, cfg)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(ranked),
		"results": ranked,
	})
}

// RankStored scores contractors already in the database
func (h *ScoringHandler) RankStored(c *gin.Context) {
	var req RankStoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	cfg, err := h.scoringService.BuildConfig(req.MinBond, req.City, req.State, req.Weights)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	ranked, err := h.scoringService.RankStored(repository.ContractorFilters{
		State: cfg.TargetState,
		Limit: limit,
	}, cfg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rank contractors"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":   len(ranked),
		"results": ranked,
	})
}

// GetConfig returns the default scoring configuration
func (h *ScoringHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"weights": scoring.DefaultWeights(),
		"policy": gin.H{
			"lookback_years":        scoring.DefaultLookbackYears,
			"experience_saturation": scoring.DefaultExperienceSaturation,
			"license_horizon_years": scoring.DefaultLicenseHorizonYears,
			"bond_saturation_ratio": scoring.DefaultBondSaturationRatio,
			"bond_floor_ratio":      scoring.DefaultBondFloorRatio,
			"state_match_score":     scoring.DefaultStateMatchScore,
		},
	})
}
