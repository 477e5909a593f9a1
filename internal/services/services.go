package services

import (
	"database/sql"

	"github.com/hardhatlabs/subscout/internal/models"
	"github.com/hardhatlabs/subscout/internal/repository"
	"github.com/hardhatlabs/subscout/internal/scoring"
	"github.com/hardhatlabs/subscout/pkg/config"
)

// Services contains all application services
type Services struct {
	Scoring ScoringService
	Auth    AuthService
}

// ScoringService defines the interface for scoring business logic
type ScoringService interface {
	// RankCandidates scores an ad-hoc candidate batch
	RankCandidates(candidates []scoring.Candidate, cfg scoring.Config) (scoring.Ranked, error)

	// RankStored scores contractors already in the database
	RankStored(filters repository.ContractorFilters, cfg scoring.Config) (scoring.Ranked, error)

	// BuildConfig assembles a validated engine configuration
	BuildConfig(minBond int64, city, state string, weights *scoring.Weights) (scoring.Config, error)
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(email, password string) (*repository.LoginResponse, error)
	Register(user *repository.RegisterRequest) (*models.User, error)
	ValidateToken(token string) (*models.User, error)
	RefreshToken(token string) (*repository.LoginResponse, error)
}

// NewServices creates a new Services instance with all dependencies
func NewServices(db *sql.DB, cfg *config.Config) *Services {
	repos := repository.NewRepositories(db)

	return &Services{
		Scoring: newScoringService(repos),
		Auth:    newAuthService(repos, cfg),
	}
}

// NewScoringService creates a standalone scoring service
func NewScoringService(repos *repository.Repositories) ScoringService {
	return newScoringService(repos)
}
