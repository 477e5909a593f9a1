package services

import (
	"fmt"
	"strings"

	"github.com/hardhatlabs/subscout/internal/repository"
	"github.com/hardhatlabs/subscout/internal/scoring"
)

// scoringServiceImpl implements ScoringService on top of the scoring engine
type scoringServiceImpl struct {
	repos  *repository.Repositories
	engine *scoring.Engine
}

// newScoringService creates a new scoring service implementation
func newScoringService(repos *repository.Repositories) ScoringService {
	return &scoringServiceImpl{
		repos:  repos,
		engine: scoring.NewEngine(),
	}
}

// RankCandidates scores an ad-hoc candidate batch
func (s *scoringServiceImpl) RankCandidates(candidates []scoring.Candidate, cfg scoring.Config) (scoring.Ranked, error) {
	return s.engine.Score(candidates, cfg)
}

// RankStored loads contractors matching the filters and scores them
func (s *scoringServiceImpl) RankStored(filters repository.ContractorFilters, cfg scoring.Config) (scoring.Ranked, error) {
	contractors, err := s.repos.Contractor.GetAll(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to load contractors: %w", err)
	}

	candidates := make([]scoring.Candidate, 0, len(contractors))
	for i := range contractors {
		candidates = append(candidates, contractors[i].ToCandidate())
	}

	return s.engine.Score(candidates, cfg)
}

// BuildConfig assembles a validated engine configuration with an optional
// weight override
func (s *scoringServiceImpl) BuildConfig(minBond int64, city, state string, weights *scoring.Weights) (scoring.Config, error) {
	cfg := scoring.NewConfig(minBond, city, strings.ToUpper(state))
	if weights != nil {
		cfg.Weights = *weights
	}
	if err := cfg.Validate(); err != nil {
		return scoring.Config{}, err
	}
	return cfg, nil
}
