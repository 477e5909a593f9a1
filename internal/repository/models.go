package repository

import (
	"time"

	"github.com/hardhatlabs/subscout/internal/models"
	"github.com/hardhatlabs/subscout/internal/scoring"
)

// ResearchRequest represents the form data for submitting a research job
type ResearchRequest struct {
	Trade    string   `json:"trade" binding:"required,min=2,max=50"`
	City     string   `json:"city" binding:"required,min=2,max=50"`
	State    string   `json:"state" binding:"required,len=2"`
	MinBond  int64    `json:"min_bond" binding:"required,gt=0"`
	Keywords []string `json:"keywords" binding:"max=10,dive,max=20"`

	// Optional weight override; defaults apply when omitted
	Weights *scoring.Weights `json:"weights,omitempty"`
}

// RankedResult is one scored contractor as returned to API consumers
type RankedResult struct {
	Rank          int    `json:"rank"`
	Name          string `json:"name"`
	Website       string `json:"website"`
	City          string `json:"city"`
	State         string `json:"state"`
	LicActive     bool   `json:"lic_active"`
	LicNumber     string `json:"lic_number"`
	BondAmount    int64  `json:"bond_amount"`
	ProjectsFound int    `json:"projects_in_window"`

	Score          float64           `json:"score"`
	ScoreBreakdown scoring.Breakdown `json:"score_breakdown"`

	EvidenceURL  string `json:"evidence_url"`
	EvidenceText string `json:"evidence_text"`
	LastChecked  string `json:"last_checked"`
}

// LoginResponse represents the response from login
type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// RegisterRequest represents the request to register a new user
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role,omitempty"`
}
