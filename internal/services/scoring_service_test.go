package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hardhatlabs/subscout/internal/scoring"
)

func testCandidate(name string, bond int64) scoring.Candidate {
	expires := time.Now().AddDate(3, 0, 0)
	return scoring.Candidate{
		ID:    uuid.New(),
		Name:  name,
		City:  "Austin",
		State: "TX",
		License: scoring.License{
			Status:    scoring.LicenseActive,
			Number:    "TDLR-1000",
			ExpiresAt: &expires,
		},
		BondAmount:      bond,
		YearsInBusiness: 8,
	}
}

func TestScoringService_RankCandidates(t *testing.T) {
	svc := NewScoringService(nil)

	cfg := scoring.NewConfig(100_000, "Austin", "TX")
	candidates := []scoring.Candidate{
		testCandidate("Underbonded LLC", 30_000),
		testCandidate("Well Bonded Inc", 250_000),
	}

	ranked, err := svc.RankCandidates(candidates, cfg)
	if err != nil {
		t.Fatalf("RankCandidates failed: %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("Expected 2 ranked results, got %d", len(ranked))
	}
	if ranked[0].Candidate.Name != "Well Bonded Inc" {
		t.Errorf("Expected bonded contractor ranked first, got %s", ranked[0].Candidate.Name)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Errorf("Expected ranks 1 and 2, got %d and %d", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestScoringService_RankCandidatesInvalidConfig(t *testing.T) {
	svc := NewScoringService(nil)

	cfg := scoring.NewConfig(100_000, "Austin", "TX")
	cfg.Weights.Bonding = 0.9 // weights no longer sum to 1

	if _, err := svc.RankCandidates([]scoring.Candidate{testCandidate("A", 100_000)}, cfg); err == nil {
		t.Error("Expected error for invalid weights")
	}
}

func TestScoringService_BuildConfig(t *testing.T) {
	svc := NewScoringService(nil)

	cfg, err := svc.BuildConfig(50_000, "Dallas", "tx", nil)
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}
	if cfg.TargetState != "TX" {
		t.Errorf("Expected state normalized to TX, got %q", cfg.TargetState)
	}
	if cfg.MinBond != 50_000 {
		t.Errorf("Expected MinBond 50000, got %d", cfg.MinBond)
	}
	if cfg.Weights != scoring.DefaultWeights() {
		t.Error("Expected default weights when no override given")
	}
}

func TestScoringService_BuildConfigWeightOverride(t *testing.T) {
	svc := NewScoringService(nil)

	weights := scoring.Weights{Experience: 0.4, License: 0.3, Bonding: 0.3}
	cfg, err := svc.BuildConfig(50_000, "Dallas", "TX", &weights)
	if err != nil {
		t.Fatalf("BuildConfig failed: %v", err)
	}
	if cfg.Weights != weights {
		t.Error("Expected override weights to be applied")
	}
}

func TestScoringService_BuildConfigRejectsBadInput(t *testing.T) {
	svc := NewScoringService(nil)

	tests := []struct {
		name    string
		minBond int64
		state   string
		weights *scoring.Weights
	}{
		{"zero min bond", 0, "TX", nil},
		{"missing state", 50_000, "", nil},
		{"weights not summing to one", 50_000, "TX", &scoring.Weights{Experience: 0.5}},
		{"negative weight", 50_000, "TX", &scoring.Weights{Experience: -0.5, License: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.BuildConfig(tt.minBond, "Austin", tt.state, tt.weights); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
